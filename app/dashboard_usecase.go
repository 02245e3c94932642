package app

import (
	"context"
	"fmt"
	"time"

	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/constants"
	"github.com/thecodereport/tcdr/internal/version"
	servicepkg "github.com/thecodereport/tcdr/service"
)

// DashboardUseCase discovers coverage reports and builds the dashboard content
type DashboardUseCase struct {
	service    domain.DashboardService
	fileHelper *FileHelper
	history    domain.HistoryStore
	now        func() time.Time
}

// NewDashboardUseCase creates a new dashboard use case without history
func NewDashboardUseCase(service domain.DashboardService) *DashboardUseCase {
	return &DashboardUseCase{
		service:    service,
		fileHelper: NewFileHelper(),
		now:        time.Now,
	}
}

// Execute resolves the request's paths, builds the content and attaches history
func (uc *DashboardUseCase) Execute(ctx context.Context, req domain.DashboardRequest) (*domain.DashboardResponse, error) {
	applyDashboardDefaults(&req)

	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	files, err := ResolveReportPaths(
		uc.fileHelper,
		req.Paths,
		req.Recursive,
		req.IncludePatterns,
		req.ExcludePatterns,
	)
	if err != nil {
		return nil, domain.NewFileNotFoundError(fmt.Sprintf("%v", req.Paths), err)
	}

	if len(files) == 0 {
		return nil, domain.NewFileNotFoundError(
			fmt.Sprintf("no coverage reports matching %v in %v", req.IncludePatterns, req.Paths), nil)
	}

	content, err := uc.service.BuildFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	if req.HotspotLimit > 0 && len(content.Overview.Hotspots) > req.HotspotLimit {
		content.Overview.Hotspots = content.Overview.Hotspots[:req.HotspotLimit]
	}

	if req.ThresholdTotal != nil {
		content.Thresholds = &domain.Thresholds{Total: req.ThresholdTotal}
	}

	now := uc.now()
	response := &domain.DashboardResponse{
		Content:     content,
		Sources:     files,
		GeneratedAt: now.Format(time.RFC3339),
		Version:     version.Version,
	}

	if uc.history != nil {
		response.Warnings = uc.attachHistory(ctx, content, req, now)
	}

	return response, nil
}

// attachHistory records a snapshot when asked and fills the trend from the
// store. Wire payloads keep the trend they carry. Failures become warnings.
func (uc *DashboardUseCase) attachHistory(ctx context.Context, content *domain.DashboardContent, req domain.DashboardRequest, now time.Time) []string {
	var warnings []string

	if req.RecordHistory {
		snap := servicepkg.SnapshotFromContent(content, now)
		if _, err := uc.history.Record(ctx, snap); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to record history: %v", err))
		}
	}

	if len(content.Overview.History) > 0 {
		return warnings
	}

	snaps, err := uc.history.Recent(ctx, content.RepoName, req.HistoryLimit)
	if err != nil {
		return append(warnings, fmt.Sprintf("failed to read history: %v", err))
	}
	content.Overview.History = servicepkg.HistoryFromSnapshots(snaps)
	return warnings
}

// validateRequest validates the dashboard request
func (uc *DashboardUseCase) validateRequest(req domain.DashboardRequest) error {
	if req.HotspotLimit < 0 {
		return fmt.Errorf("hotspot limit cannot be negative")
	}

	if req.MaxDepth < 0 {
		return fmt.Errorf("max depth cannot be negative")
	}

	if t := req.ThresholdTotal; t != nil && (*t < 0 || *t > 100) {
		return fmt.Errorf("threshold must be between 0 and 100")
	}

	if req.HistoryLimit < 0 {
		return fmt.Errorf("history limit cannot be negative")
	}

	return nil
}

func applyDashboardDefaults(req *domain.DashboardRequest) {
	if len(req.Paths) == 0 {
		req.Paths = []string{"."}
	}
	if len(req.IncludePatterns) == 0 {
		req.IncludePatterns = []string{constants.DefaultReportPattern}
	}
	if req.HistoryLimit == 0 {
		req.HistoryLimit = constants.DefaultHistoryLimit
	}
}

// DashboardUseCaseBuilder provides a builder pattern for creating DashboardUseCase
type DashboardUseCaseBuilder struct {
	service    domain.DashboardService
	fileHelper *FileHelper
	history    domain.HistoryStore
	now        func() time.Time
}

// NewDashboardUseCaseBuilder creates a new builder
func NewDashboardUseCaseBuilder() *DashboardUseCaseBuilder {
	return &DashboardUseCaseBuilder{}
}

// WithService sets the dashboard service
func (b *DashboardUseCaseBuilder) WithService(service domain.DashboardService) *DashboardUseCaseBuilder {
	b.service = service
	return b
}

// WithFileHelper sets the file helper
func (b *DashboardUseCaseBuilder) WithFileHelper(fileHelper *FileHelper) *DashboardUseCaseBuilder {
	b.fileHelper = fileHelper
	return b
}

// WithHistory sets the snapshot store
func (b *DashboardUseCaseBuilder) WithHistory(store domain.HistoryStore) *DashboardUseCaseBuilder {
	b.history = store
	return b
}

// WithClock sets the clock used for snapshots and response timestamps
func (b *DashboardUseCaseBuilder) WithClock(now func() time.Time) *DashboardUseCaseBuilder {
	b.now = now
	return b
}

// Build creates the DashboardUseCase with the configured dependencies
func (b *DashboardUseCaseBuilder) Build() (*DashboardUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("dashboard service is required")
	}

	uc := &DashboardUseCase{
		service:    b.service,
		fileHelper: b.fileHelper,
		history:    b.history,
		now:        b.now,
	}

	if uc.fileHelper == nil {
		uc.fileHelper = NewFileHelper()
	}
	if uc.now == nil {
		uc.now = time.Now
	}

	return uc, nil
}
