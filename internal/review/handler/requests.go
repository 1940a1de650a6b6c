package handler

import (
	"strings"
	"time"

	pubmodels "paperledger/internal/publication/models"
	"paperledger/internal/review/models"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
)

// SubmitRequest is the body of POST /publications/{owner}/{id}/reviews.
type SubmitRequest struct {
	Verdict   string `json:"verdict"`
	ReviewURI string `json:"review_uri"`
}

func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Verdict = strings.TrimSpace(r.Verdict)
	if r.Verdict == "" {
		return dErrors.New(dErrors.CodeValidation, "verdict is required")
	}
	return nil
}

// EditRequest is the body of PATCH /publications/{owner}/{id}/reviews.
type EditRequest struct {
	Verdict string `json:"verdict"`
}

func (r *EditRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Verdict = strings.TrimSpace(r.Verdict)
	if r.Verdict == "" {
		return dErrors.New(dErrors.CodeValidation, "verdict is required")
	}
	return nil
}

type ReviewResponse struct {
	Address     domain.Address    `json:"address"`
	Reviewer    domain.Identity   `json:"reviewer"`
	Publication pubmodels.Ref     `json:"publication"`
	Verdict     pubmodels.Verdict `json:"verdict"`
	ReviewURI   string            `json:"review_uri"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func FromReview(r *models.Review) *ReviewResponse {
	return &ReviewResponse{
		Address:     r.Address(),
		Reviewer:    r.Reviewer,
		Publication: r.Publication,
		Verdict:     r.Verdict,
		ReviewURI:   r.ReviewURI,
		UpdatedAt:   r.UpdatedAt,
	}
}
