package upload

import (
	"context"
	"errors"
	"testing"

	"github.com/studyrag/ragchat/internal/domain"
	"github.com/studyrag/ragchat/internal/gateway"
)

type fakeUploader struct {
	err   error
	calls int
	last  string
}

func (f *fakeUploader) Upload(_ context.Context, filename string, _ []byte) error {
	f.calls++
	f.last = filename
	return f.err
}

func TestStart_NoFileIsNoop(t *testing.T) {
	up := &fakeUploader{}
	o := New(up, nil)

	if _, ok := o.Start(); ok {
		t.Error("Start without a selected file was accepted")
	}
	if up.calls != 0 {
		t.Errorf("Expected no upload calls, got %d", up.calls)
	}
}

func TestUpload_SuccessTransitions(t *testing.T) {
	up := &fakeUploader{}
	o := New(up, nil)

	o.Select("notes.pdf", []byte("contents"))
	if got := o.Attempt().Status; got != domain.UploadIdle {
		t.Fatalf("Expected idle after Select, got %v", got)
	}

	step, ok := o.Start()
	if !ok {
		t.Fatal("Start rejected a valid attempt")
	}
	if got := o.Attempt().Status; got != domain.UploadInFlight {
		t.Fatalf("Expected uploading while in flight, got %v", got)
	}

	o.Apply(step(context.Background()))

	att := o.Attempt()
	if att.Status != domain.UploadSucceeded {
		t.Errorf("Expected succeeded, got %v", att.Status)
	}
	if att.Notice != NoticeSucceeded {
		t.Errorf("Unexpected notice: %q", att.Notice)
	}
	if up.last != "notes.pdf" {
		t.Errorf("Expected notes.pdf uploaded, got %q", up.last)
	}
}

func TestStart_WhileInFlightIsIgnored(t *testing.T) {
	up := &fakeUploader{}
	o := New(up, nil)
	o.Select("a.txt", []byte("x"))

	step, _ := o.Start()
	if _, ok := o.Start(); ok {
		t.Error("Second Start while in flight was accepted")
	}

	o.Apply(step(context.Background()))
	if up.calls != 1 {
		t.Errorf("Expected exactly 1 upload call, got %d", up.calls)
	}
}

func TestApply_FailureKeepsFileForRetry(t *testing.T) {
	up := &fakeUploader{err: &gateway.UnreachableError{Err: errors.New("refused")}}
	o := New(up, nil)
	o.Select("a.txt", []byte("x"))

	step, _ := o.Start()
	o.Apply(step(context.Background()))

	att := o.Attempt()
	if att.Status != domain.UploadFailed {
		t.Errorf("Expected failed, got %v", att.Status)
	}
	if att.Notice != NoticeFailed {
		t.Errorf("Unexpected notice: %q", att.Notice)
	}
	if !att.HasFile() {
		t.Error("Selected file was dropped on failure")
	}

	// Retry works against a recovered backend.
	up.err = nil
	step, ok := o.Start()
	if !ok {
		t.Fatal("Retry after failure rejected")
	}
	o.Apply(step(context.Background()))
	if got := o.Attempt().Status; got != domain.UploadSucceeded {
		t.Errorf("Expected succeeded on retry, got %v", got)
	}
}

func TestApply_UnauthorizedMarksFailed(t *testing.T) {
	o := New(&fakeUploader{err: gateway.ErrUnauthorized}, nil)
	o.Select("a.txt", []byte("x"))

	step, _ := o.Start()
	o.Apply(step(context.Background()))

	if got := o.Attempt().Status; got != domain.UploadFailed {
		t.Errorf("Expected failed on expiry, got %v", got)
	}
}

func TestSelect_WhileInFlightIsIgnored(t *testing.T) {
	o := New(&fakeUploader{}, nil)
	o.Select("a.txt", []byte("x"))

	step, _ := o.Start()
	o.Select("b.txt", []byte("y"))

	if got := o.Attempt().Name; got != "a.txt" {
		t.Errorf("Select replaced file mid-flight: %q", got)
	}
	o.Apply(step(context.Background()))
}
