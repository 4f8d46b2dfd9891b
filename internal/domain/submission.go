package domain

import "time"

// Submission is a participant's feedback for a workshop form.
// CertificateURL is filled in later by whoever publishes the certificate.
type Submission struct {
	ID             string    `bson:"-" json:"id"`
	WorkshopID     string    `bson:"workshopId" json:"workshopId"`
	Name           string    `bson:"name" json:"name"`
	Course         string    `bson:"course" json:"course"`
	Email          string    `bson:"email" json:"email"`
	Phone          string    `bson:"phone" json:"phone"`
	Feedback       string    `bson:"feedback" json:"feedback"`
	CertificateURL string    `bson:"certificateUrl,omitempty" json:"certificateUrl,omitempty"`
	SubmittedAt    time.Time `bson:"submittedAt" json:"submittedAt"`
}

// SubmissionChange is a single update of a submission record, observed as
// the state before and after the write. Before is nil when the feed could
// not supply a pre-image; such a change is never treated as a transition.
type SubmissionChange struct {
	SubmissionID string      `json:"submissionId"`
	Before       *Submission `json:"before"`
	After        *Submission `json:"after"`
}

// CertificateLinkAdded reports whether this update is the one that first
// populated the certificate link. Without a before image the prior state is
// unknown, so the answer is false.
func (c SubmissionChange) CertificateLinkAdded() bool {
	if c.Before == nil || c.After == nil {
		return false
	}
	return c.Before.CertificateURL == "" && c.After.CertificateURL != ""
}

// CertificateRequest is the input to the certificate renderer.
type CertificateRequest struct {
	Name     string `json:"name"`
	Workshop string `json:"workshop"`
}
