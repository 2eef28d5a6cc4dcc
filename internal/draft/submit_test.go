package draft

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"trovka.org/internal/api"
	"trovka.org/internal/notify"
)

type fakeSubmitter struct {
	uploadFn func(filename string, data string) (string, error)
	createFn func(req api.ServiceRequest) (api.Service, error)

	calls []string
}

func (f *fakeSubmitter) UploadImage(_ context.Context, _, filename string, r io.Reader) (string, error) {
	f.calls = append(f.calls, "upload")
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return f.uploadFn(filename, string(data))
}

func (f *fakeSubmitter) CreateService(_ context.Context, _ string, req api.ServiceRequest) (api.Service, error) {
	f.calls = append(f.calls, "create")
	return f.createFn(req)
}

type recordingNotifier struct {
	successes []string
	failures  []string
}

func (n *recordingNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *recordingNotifier) Failure(msg string) { n.failures = append(n.failures, msg) }

func TestSubmitBlockedByValidationMakesNoCalls(t *testing.T) {
	t.Parallel()

	backend := &fakeSubmitter{}
	flow := NewWorkflow(backend, notify.Discard{})

	d := validDraft()
	d.Price = ""

	_, err := flow.Submit(context.Background(), "tok", d)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if vErr.Fields["price"] == "" {
		t.Fatalf("error mapping missing the empty field: %v", vErr.Fields)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("network calls were made: %v", backend.calls)
	}
}

func TestSubmitWithoutImageSingleCall(t *testing.T) {
	t.Parallel()

	var gotReq api.ServiceRequest
	backend := &fakeSubmitter{
		createFn: func(req api.ServiceRequest) (api.Service, error) {
			gotReq = req
			return api.Service{ID: 42, Name: req.Name}, nil
		},
	}
	notifier := &recordingNotifier{}
	flow := NewWorkflow(backend, notifier)

	d := validDraft()
	svc, err := flow.Submit(context.Background(), "tok", d)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if svc.ID != 42 {
		t.Fatalf("unexpected service: %+v", svc)
	}
	if len(backend.calls) != 1 || backend.calls[0] != "create" {
		t.Fatalf("unexpected call sequence: %v", backend.calls)
	}
	if gotReq.WorkingDays != "Monday-Friday" {
		t.Fatalf("unexpected working_days: %q", gotReq.WorkingDays)
	}
	if gotReq.Image != nil {
		t.Fatalf("image should be null, got %q", *gotReq.Image)
	}
	if gotReq.Category != 5 || gotReq.CategoryType != 2 {
		t.Fatalf("category fields mis-mapped: %+v", gotReq)
	}
	if len(notifier.successes) != 1 {
		t.Fatalf("expected one success toast, got %v", notifier.successes)
	}
	if d.Name != "" {
		t.Fatalf("draft not reset after success: %+v", d)
	}
}

func TestSubmitWithImageUploadsFirst(t *testing.T) {
	t.Parallel()

	const uploadedURL = "https://cdn.trovka.example/img/7.png"
	var gotReq api.ServiceRequest
	backend := &fakeSubmitter{
		uploadFn: func(filename, data string) (string, error) {
			if filename != "pic.png" || data != "pixels" {
				t.Errorf("unexpected upload: %q %q", filename, data)
			}
			return uploadedURL, nil
		},
		createFn: func(req api.ServiceRequest) (api.Service, error) {
			gotReq = req
			return api.Service{ID: 7}, nil
		},
	}
	flow := NewWorkflow(backend, notify.Discard{})

	d := validDraft()
	if err := d.AttachImage("pic.png", strings.NewReader("pixels")); err != nil {
		t.Fatalf("AttachImage: %v", err)
	}

	if _, err := flow.Submit(context.Background(), "tok", d); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(backend.calls) != 2 || backend.calls[0] != "upload" || backend.calls[1] != "create" {
		t.Fatalf("unexpected call sequence: %v", backend.calls)
	}
	if gotReq.Image == nil || *gotReq.Image != uploadedURL {
		t.Fatalf("create did not reference the uploaded URL: %+v", gotReq.Image)
	}
	if d.Image() != nil {
		t.Fatal("preview not released after successful submit")
	}
}

func TestFailingUploadAbortsBeforeCreate(t *testing.T) {
	t.Parallel()

	backend := &fakeSubmitter{
		uploadFn: func(string, string) (string, error) {
			return "", &api.Error{Status: http.StatusInternalServerError, Body: []byte(`{"detail":"storage down"}`)}
		},
	}
	notifier := &recordingNotifier{}
	flow := NewWorkflow(backend, notifier)

	d := validDraft()
	if err := d.AttachImage("pic.png", strings.NewReader("pixels")); err != nil {
		t.Fatalf("AttachImage: %v", err)
	}
	t.Cleanup(func() { d.Discard() })

	_, err := flow.Submit(context.Background(), "tok", d)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(backend.calls) != 1 || backend.calls[0] != "upload" {
		t.Fatalf("create must not run after failed upload: %v", backend.calls)
	}
	if len(notifier.failures) != 1 {
		t.Fatalf("expected one failure toast, got %v", notifier.failures)
	}
	if d.Name != "Haircut" || d.Image() == nil {
		t.Fatalf("draft must be preserved for retry: %+v", d)
	}
}

func TestFailingCreateKeepsDraftAndReportsOrphan(t *testing.T) {
	t.Parallel()

	backend := &fakeSubmitter{
		uploadFn: func(string, string) (string, error) {
			return "https://cdn.trovka.example/img/9.png", nil
		},
		createFn: func(api.ServiceRequest) (api.Service, error) {
			return api.Service{}, errors.New("backend unavailable")
		},
	}
	flow := NewWorkflow(backend, notify.Discard{})

	d := validDraft()
	if err := d.AttachImage("pic.png", strings.NewReader("pixels")); err != nil {
		t.Fatalf("AttachImage: %v", err)
	}
	t.Cleanup(func() { d.Discard() })

	_, err := flow.Submit(context.Background(), "tok", d)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "img/9.png") {
		t.Fatalf("orphaned upload not surfaced: %v", err)
	}
	if d.Name != "Haircut" {
		t.Fatalf("draft was reset on failure: %+v", d)
	}
}
