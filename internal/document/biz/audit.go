package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/conf"
	"github.com/lk2023060901/doc-hub-backend/internal/document/hashing"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	"github.com/lk2023060901/doc-hub-backend/internal/document/storage"
	apperrors "github.com/lk2023060901/doc-hub-backend/internal/pkg/errors"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/workerpool"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// AuditMismatch is one silent-corruption signal: the stored bytes no
// longer hash to the recorded digest.
type AuditMismatch struct {
	VersionID  uuid.UUID `json:"version_id"`
	StorageKey string    `json:"storage_key"`
	Expected   string    `json:"expected"`
	Actual     string    `json:"actual"`
}

// AuditItemError is a transient per-item failure, distinct from a
// digest mismatch.
type AuditItemError struct {
	VersionID uuid.UUID `json:"version_id"`
	Message   string    `json:"message"`
}

// AuditReport summarizes one audit run.
type AuditReport struct {
	Sampled    int              `json:"sampled"`
	Checked    int              `json:"checked"`
	Matched    int              `json:"matched"`
	Mismatched []AuditMismatch  `json:"mismatched"`
	Errors     []AuditItemError `json:"errors"`
	StartedAt  time.Time        `json:"started_at"`
	Duration   time.Duration    `json:"duration"`
}

// AuditUseCase re-verifies stored content against recorded digests.
// Read-only: it never mutates data, remediation is external.
type AuditUseCase struct {
	versions repository.VersionRepository
	store    storage.Gateway
	cfg      conf.AuditConfig
	mailCfg  conf.MailConfig
	logger   *logger.Logger
}

// NewAuditUseCase creates the audit use case.
func NewAuditUseCase(
	versions repository.VersionRepository,
	store storage.Gateway,
	cfg conf.AuditConfig,
	mailCfg conf.MailConfig,
	log *logger.Logger,
) *AuditUseCase {
	return &AuditUseCase{
		versions: versions,
		store:    store,
		cfg:      cfg,
		mailCfg:  mailCfg,
		logger:   log,
	}
}

// RunHashAudit samples versions across tenants, downloads each from
// canonical storage and recomputes SHA-256. Per-item failures never
// abort the batch. sampleSize <= 0 falls back to the configured default.
func (uc *AuditUseCase) RunHashAudit(ctx context.Context, sampleSize int) (*AuditReport, error) {
	if sampleSize <= 0 {
		sampleSize = uc.cfg.SampleSize
	}

	sample, err := uc.versions.Sample(ctx, uuid.Nil, sampleSize)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	report := &AuditReport{
		Sampled:    len(sample),
		Mismatched: []AuditMismatch{},
		Errors:     []AuditItemError{},
		StartedAt:  time.Now(),
	}

	pool, err := workerpool.New(&workerpool.Config{Workers: uc.cfg.Workers}, uc.logger.Logger)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	defer pool.Close()

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, v := range sample {
		version := v
		wg.Add(1)
		task := func() {
			defer wg.Done()
			mismatch, itemErr := uc.checkOne(ctx, version)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case itemErr != nil:
				report.Errors = append(report.Errors, *itemErr)
			case mismatch != nil:
				report.Checked++
				report.Mismatched = append(report.Mismatched, *mismatch)
			default:
				report.Checked++
				report.Matched++
			}
		}
		if err := pool.Submit(task); err != nil {
			// Pool refused the task; run it inline rather than losing
			// the sample item.
			task()
		}
	}
	wg.Wait()

	report.Duration = time.Since(report.StartedAt)

	uc.logger.Info("hash audit finished",
		zap.Int("sampled", report.Sampled),
		zap.Int("checked", report.Checked),
		zap.Int("matched", report.Matched),
		zap.Int("mismatched", len(report.Mismatched)),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("duration", report.Duration))

	if len(report.Mismatched) > 0 && uc.cfg.MailReport {
		if err := uc.mailReport(ctx, report); err != nil {
			uc.logger.Warn("failed to mail audit report", zap.Error(err))
		}
	}

	return report, nil
}

// checkOne downloads and rehashes a single version.
func (uc *AuditUseCase) checkOne(ctx context.Context, version *models.DocumentVersion) (*AuditMismatch, *AuditItemError) {
	body, err := uc.store.Get(ctx, version.StorageKey)
	if err != nil {
		return nil, &AuditItemError{VersionID: version.ID, Message: err.Error()}
	}
	defer body.Close()

	actual, _, err := hashing.SumReader(body)
	if err != nil {
		return nil, &AuditItemError{VersionID: version.ID, Message: err.Error()}
	}

	if !hashing.Equal(version.SHA256, actual) {
		return &AuditMismatch{
			VersionID:  version.ID,
			StorageKey: version.StorageKey,
			Expected:   hashing.Normalize(version.SHA256),
			Actual:     actual,
		}, nil
	}

	return nil, nil
}

// mailReport sends the mismatch list to the operations address.
func (uc *AuditUseCase) mailReport(ctx context.Context, report *AuditReport) error {
	msg := mail.NewMsg()
	if err := msg.From(uc.mailCfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(uc.mailCfg.To...); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(fmt.Sprintf("hash audit: %d mismatched version(s)", len(report.Mismatched)))

	var b strings.Builder
	fmt.Fprintf(&b, "Hash audit run at %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "sampled=%d checked=%d matched=%d mismatched=%d errors=%d\n\n",
		report.Sampled, report.Checked, report.Matched, len(report.Mismatched), len(report.Errors))
	for _, m := range report.Mismatched {
		fmt.Fprintf(&b, "version %s (%s)\n  expected %s\n  actual   %s\n",
			m.VersionID, m.StorageKey, m.Expected, m.Actual)
	}
	msg.SetBodyString(mail.TypeTextPlain, b.String())

	client, err := mail.NewClient(uc.mailCfg.Host,
		mail.WithPort(uc.mailCfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(uc.mailCfg.Username),
		mail.WithPassword(uc.mailCfg.Password),
	)
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}
	defer client.Close()

	return client.DialAndSendWithContext(ctx, msg)
}
