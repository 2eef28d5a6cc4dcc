// Package draft models the in-progress service-listing form: field state,
// validation, dependent-field invariants and the two-phase submit workflow.
package draft

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"trovka.org/internal/api"
)

// Draft is unsaved form state, destroyed on successful submit or discard.
type Draft struct {
	ID          string
	Name        string
	Price       string
	Description string
	Location    int64
	Category    int64 // selected category type
	SubCategory int64
	StartDay    string
	EndDay      string
	StartTime   string
	EndTime     string

	image *Image
}

// New returns an empty draft with a client-side handle.
func New() *Draft {
	return &Draft{ID: uuid.NewString()}
}

// Image is an attached file with a releasable local preview copy, the analog
// of a revocable object URL: release it when superseded or on discard.
type Image struct {
	Filename    string
	PreviewPath string
	released    bool
}

// Open returns the preview contents for upload.
func (img *Image) Open() (io.ReadCloser, error) {
	if img.released {
		return nil, fmt.Errorf("draft: image preview already released")
	}
	return os.Open(img.PreviewPath)
}

// Release removes the local preview copy. Safe to call twice.
func (img *Image) Release() error {
	if img.released {
		return nil
	}
	img.released = true
	if err := os.Remove(img.PreviewPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("draft: release preview: %w", err)
	}
	return nil
}

// AttachImage copies the file into a local preview and attaches it to the
// draft. A previously attached image is released first.
func (d *Draft) AttachImage(filename string, r io.Reader) error {
	tmp, err := os.CreateTemp("", "trovka-preview-*"+filepath.Ext(filename))
	if err != nil {
		return fmt.Errorf("draft: create preview: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("draft: copy preview: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("draft: close preview: %w", err)
	}

	if d.image != nil {
		_ = d.image.Release()
	}
	d.image = &Image{Filename: filepath.Base(filename), PreviewPath: tmp.Name()}
	return nil
}

// Image returns the attached image, or nil.
func (d *Draft) Image() *Image {
	return d.image
}

// SetCategory selects the top-level category and re-applies the dependent
// field invariants against the new sub-category candidate set.
func (d *Draft) SetCategory(id int64, candidates []api.Category) {
	d.Category = id
	d.Normalize(candidates)
}

// SetStartDay selects the start day and re-applies the day-range invariant.
// The sub-category is untouched: only a category change may invalidate it.
func (d *Draft) SetStartDay(day string) {
	d.StartDay = day
	d.normalizeDays()
}

// Normalize enforces the dependent-field invariants in one place, invoked on
// every relevant change: a sub-category outside the candidate set is cleared,
// and an end day not strictly after the start day is cleared so a stale
// selection can never reach submit.
func (d *Draft) Normalize(subCategories []api.Category) {
	if d.SubCategory != 0 {
		found := false
		for _, c := range subCategories {
			if c.ID == d.SubCategory {
				found = true
				break
			}
		}
		if !found {
			d.SubCategory = 0
		}
	}
	d.normalizeDays()
}

func (d *Draft) normalizeDays() {
	if d.EndDay != "" && !validEndDay(d.StartDay, d.EndDay) {
		d.EndDay = ""
	}
}

// WorkingDays derives the "{start}-{end}" range. Computed only at submit
// time, never stored on the draft.
func (d *Draft) WorkingDays() string {
	return d.StartDay + "-" + d.EndDay
}

// Validate runs the synchronous required-field check. It never talks to the
// backend; the returned mapping is empty exactly when submit may proceed.
func (d *Draft) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(d.Name) == "" {
		errs["name"] = "Service name is required"
	}
	if strings.TrimSpace(d.Price) == "" {
		errs["price"] = "Service price is required"
	}
	if d.Location == 0 {
		errs["location"] = "Location is required"
	}
	if d.Category == 0 {
		errs["category"] = "Category is required"
	}
	if d.SubCategory == 0 {
		errs["subCategory"] = "Sub-category is required"
	}
	if d.StartDay == "" {
		errs["startDay"] = "Start day is required"
	}
	if d.EndDay == "" {
		errs["endDay"] = "End day is required"
	}
	if d.StartTime == "" {
		errs["startTime"] = "Start time is required"
	}
	if d.EndTime == "" {
		errs["endTime"] = "End time is required"
	}
	return errs
}

// Reset empties the draft after a successful submit, releasing the preview.
func (d *Draft) Reset() {
	if d.image != nil {
		_ = d.image.Release()
	}
	*d = Draft{ID: d.ID}
}

// Discard drops the draft on cancel or navigation away. No confirmation, no
// submit; only the preview resource is reclaimed.
func (d *Draft) Discard() {
	if d.image != nil {
		_ = d.image.Release()
	}
	*d = Draft{}
}

// serviceRequest composes the record sent to the backend.
func (d *Draft) serviceRequest(imageURL *string) api.ServiceRequest {
	return api.ServiceRequest{
		Name:         d.Name,
		Price:        d.Price,
		Description:  d.Description,
		Category:     d.SubCategory,
		CategoryType: d.Category,
		WorkingDays:  d.WorkingDays(),
		StartTime:    d.StartTime,
		EndTime:      d.EndTime,
		Location:     d.Location,
		Image:        imageURL,
	}
}

// ValidationError carries the field-to-message mapping from a blocked submit.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	return "draft: invalid fields: " + strings.Join(names, ", ")
}
