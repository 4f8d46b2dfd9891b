package changefeed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tendant/simple-certify/internal/dispatch"
)

func TestDecodeMongoEvent(t *testing.T) {
	oid := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.M{
		"operationType": "update",
		"documentKey":   bson.M{"_id": oid},
		"fullDocument": bson.M{
			"name":           "Jane Doe",
			"email":          "jane@example.com",
			"certificateUrl": "https://cdn.example.com/c.pdf",
		},
		"fullDocumentBeforeChange": bson.M{
			"name":  "Jane Doe",
			"email": "jane@example.com",
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	change, err := decodeMongoEvent(raw)
	if err != nil {
		t.Fatalf("decodeMongoEvent: %v", err)
	}
	if change.SubmissionID != oid.Hex() {
		t.Errorf("SubmissionID = %q, want %q", change.SubmissionID, oid.Hex())
	}
	if change.After == nil || change.After.CertificateURL != "https://cdn.example.com/c.pdf" {
		t.Fatalf("After = %+v", change.After)
	}
	if change.After.ID != oid.Hex() {
		t.Errorf("After.ID = %q", change.After.ID)
	}
	if change.Before == nil || change.Before.CertificateURL != "" {
		t.Fatalf("Before = %+v", change.Before)
	}
	if !change.CertificateLinkAdded() {
		t.Error("change should report the link as added")
	}
}

func TestDecodeMongoEvent_StringIDWithoutPreImage(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"operationType":            "update",
		"documentKey":              bson.M{"_id": "3f0c9a1e-6d4b-4a55-9b1e-2f6a0f3f2c11"},
		"fullDocument":             bson.M{"email": "jane@example.com", "certificateUrl": "https://cdn.example.com/c.pdf"},
		"fullDocumentBeforeChange": nil,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	change, err := decodeMongoEvent(raw)
	if !errors.Is(err, ErrMissingPreImage) {
		t.Fatalf("err = %v, want ErrMissingPreImage", err)
	}
	if change.SubmissionID != "3f0c9a1e-6d4b-4a55-9b1e-2f6a0f3f2c11" {
		t.Errorf("SubmissionID = %q", change.SubmissionID)
	}
}

type countingMailer struct{ sends int }

func (m *countingMailer) SendCertificateLink(ctx context.Context, to, name, url string) error {
	m.sends++
	return nil
}

func TestMongoEventsWithoutPreImage_DoNotNotify(t *testing.T) {
	mailer := &countingMailer{}
	d := dispatch.New(mailer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	oid := primitive.NewObjectID()

	// Two later edits of a submission that already has its link.
	for _, name := range []string{"Jane Doe", "Jane D."} {
		raw, err := bson.Marshal(bson.M{
			"operationType": "update",
			"documentKey":   bson.M{"_id": oid},
			"fullDocument": bson.M{
				"name":           name,
				"email":          "jane@example.com",
				"certificateUrl": "https://cdn.example.com/c.pdf",
			},
		})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		change, err := decodeMongoEvent(raw)
		if err == nil {
			d.Handle(context.Background(), change)
			continue
		}
		if !errors.Is(err, ErrMissingPreImage) {
			t.Fatalf("decodeMongoEvent: %v", err)
		}
		// A caller that ignores the error must still not notify.
		if got := d.Handle(context.Background(), change); got != dispatch.OutcomeSkipped {
			t.Errorf("Handle() = %q, want skipped", got)
		}
	}

	if mailer.sends != 0 {
		t.Errorf("sends = %d, want 0", mailer.sends)
	}
}

func TestDecodeMongoEvent_MissingKey(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"operationType": "update", "documentKey": bson.M{"_id": 42}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := decodeMongoEvent(raw); err == nil {
		t.Error("decodeMongoEvent should reject a numeric document key")
	}
}
