package draft

import (
	"context"
	"fmt"
	"io"

	"trovka.org/internal/api"
	"trovka.org/internal/notify"
	"trovka.org/internal/obs"
)

// Submitter is the slice of the API client the workflow needs.
type Submitter interface {
	UploadImage(ctx context.Context, token, filename string, r io.Reader) (string, error)
	CreateService(ctx context.Context, token string, req api.ServiceRequest) (api.Service, error)
}

// Workflow runs the two-phase submit: when an image is attached it is
// uploaded strictly before the record is created, since the record needs the
// resulting URL. Failure at either step is terminal for the attempt; the
// draft is preserved so the user can resubmit without re-entering data.
type Workflow struct {
	backend Submitter
	notify  notify.Notifier
}

func NewWorkflow(backend Submitter, notifier notify.Notifier) *Workflow {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Workflow{backend: backend, notify: notifier}
}

// Submit validates and submits the draft. Validation failure produces a
// *ValidationError before any network call. On success the draft is reset
// and its preview released; on failure it is left untouched.
//
// An image that uploaded but whose record creation failed is not cleaned up;
// the orphaned URL is reported inside the returned error so callers can act.
func (w *Workflow) Submit(ctx context.Context, token string, d *Draft) (api.Service, error) {
	if fieldErrs := d.Validate(); len(fieldErrs) > 0 {
		return api.Service{}, &ValidationError{Fields: fieldErrs}
	}

	var imageURL *string
	if img := d.Image(); img != nil {
		rc, err := img.Open()
		if err != nil {
			w.notify.Failure("Failed to add service")
			return api.Service{}, err
		}
		url, err := w.backend.UploadImage(ctx, token, img.Filename, rc)
		rc.Close()
		if err != nil {
			w.notify.Failure("Failed to add service")
			return api.Service{}, fmt.Errorf("upload image: %w", err)
		}
		imageURL = &url
	}

	svc, err := w.backend.CreateService(ctx, token, d.serviceRequest(imageURL))
	if err != nil {
		w.notify.Failure("Failed to add service")
		if imageURL != nil {
			obs.LogEvent("orphaned image upload", map[string]any{"url": *imageURL, "draft": d.ID})
			return api.Service{}, fmt.Errorf("create service (image %s uploaded but unlinked): %w", *imageURL, err)
		}
		return api.Service{}, fmt.Errorf("create service: %w", err)
	}

	w.notify.Success("Service added successfully!")
	d.Reset()
	return svc, nil
}
