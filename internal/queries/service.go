package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/pkg/db/models"
	"github.com/agroscan/agroscan-backend/pkg/enums"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
)

// SubmitRequest is a farmer's question payload.
type SubmitRequest struct {
	Question string `json:"question" validate:"required,min=5,max=2000"`
}

// ReplyRequest is an agronomist's answer payload.
type ReplyRequest struct {
	Answer string `json:"answer" validate:"required,min=2,max=4000"`
}

// QueryDTO is the transport shape for one question.
type QueryDTO struct {
	ID         uuid.UUID         `json:"id"`
	Username   string            `json:"username"`
	Question   string            `json:"question"`
	Answer     string            `json:"answer"`
	Status     enums.QueryStatus `json:"status"`
	AnsweredAt *time.Time        `json:"answered_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Service covers both sides of the question queue.
type Service interface {
	Submit(ctx context.Context, username string, req SubmitRequest) (*QueryDTO, error)
	ListMine(ctx context.Context, username string) ([]QueryDTO, error)
	ListPending(ctx context.Context) ([]QueryDTO, error)
	Reply(ctx context.Context, queryID uuid.UUID, req ReplyRequest) (*QueryDTO, error)
}

type repository interface {
	Create(ctx context.Context, username, question string) (*models.Query, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Query, error)
	ListByUsername(ctx context.Context, username string) ([]models.Query, error)
	ListPending(ctx context.Context) ([]models.Query, error)
	Answer(ctx context.Context, id uuid.UUID, answer string, at time.Time) error
}

type service struct {
	repo repository
}

// NewService constructs the query queue service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("queries repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Submit(ctx context.Context, username string, req SubmitRequest) (*QueryDTO, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "question is required")
	}
	row, err := s.repo.Create(ctx, username, question)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create query")
	}
	return fromModel(row), nil
}

func (s *service) ListMine(ctx context.Context, username string) ([]QueryDTO, error) {
	rows, err := s.repo.ListByUsername(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list queries")
	}
	return fromModels(rows), nil
}

func (s *service) ListPending(ctx context.Context) ([]QueryDTO, error) {
	rows, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending queries")
	}
	return fromModels(rows), nil
}

// Reply overwrites the answer in place. Replying to an already-answered
// question replaces the answer on the same row, so a double-submit ends in
// the same state as a single one.
func (s *service) Reply(ctx context.Context, queryID uuid.UUID, req ReplyRequest) (*QueryDTO, error) {
	answer := strings.TrimSpace(req.Answer)
	if answer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "answer is required")
	}

	if _, err := s.repo.FindByID(ctx, queryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "query not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup query")
	}

	if err := s.repo.Answer(ctx, queryID, answer, time.Now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "answer query")
	}

	row, err := s.repo.FindByID(ctx, queryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload query")
	}
	return fromModel(row), nil
}

func fromModel(row *models.Query) *QueryDTO {
	if row == nil {
		return nil
	}
	return &QueryDTO{
		ID:         row.ID,
		Username:   row.Username,
		Question:   row.Question,
		Answer:     row.Answer,
		Status:     row.Status,
		AnsweredAt: row.AnsweredAt,
		CreatedAt:  row.CreatedAt,
	}
}

func fromModels(rows []models.Query) []QueryDTO {
	out := make([]QueryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out
}
