package service

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/psyconnect/backend/internal/domain/waitlist"
)

type WaitlistService struct {
	repo waitlist.Repository
	log  *zap.Logger
}

func NewWaitlistService(repo waitlist.Repository, log *zap.Logger) *WaitlistService {
	return &WaitlistService{repo: repo, log: log}
}

type WaitlistSignupCommand struct {
	Email    string
	FullName string
	Region   string
	Concern  string
}

func (s *WaitlistService) Signup(ctx context.Context, cmd *WaitlistSignupCommand) (*waitlist.Entry, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, waitlist.ErrInvalidEmail
	}

	e := &waitlist.Entry{
		Email:    email,
		FullName: strings.TrimSpace(cmd.FullName),
		Region:   cmd.Region,
		Concern:  cmd.Concern,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	if n, err := s.repo.Count(ctx); err == nil {
		e.Position = n
	} else {
		s.log.Warn("waitlist count failed", zap.Error(err))
	}

	s.log.Info("waitlist signup", zap.String("region", e.Region))
	return e, nil
}
