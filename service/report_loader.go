package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/coverage"
)

// parseReportTask reads and parses one coverlet report file
type parseReportTask struct {
	path   string
	report *coverage.Report
}

func (t *parseReportTask) Name() string {
	return t.path
}

func (t *parseReportTask) IsEnabled() bool {
	return true
}

func (t *parseReportTask) Execute(ctx context.Context) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewFileNotFoundError(t.path, err)
		}
		return nil, domain.NewInvalidInputError(fmt.Sprintf("cannot read %s", t.path), err)
	}
	if IsWirePayload(data) {
		return nil, domain.NewInvalidInputError(
			fmt.Sprintf("%s is a pre-aggregated summary and cannot be merged with other reports", t.path), nil)
	}
	report, err := coverage.ParseReport(data)
	if err != nil {
		return nil, err
	}
	t.report = report
	return report, nil
}

// ReportLoader parses several raw reports concurrently and merges them
type ReportLoader struct {
	executor domain.ParallelExecutor
}

// NewReportLoader creates a loader running on executor
func NewReportLoader(executor domain.ParallelExecutor) *ReportLoader {
	return &ReportLoader{executor: executor}
}

// LoadAndMerge parses every path and merges the reports in path order.
// Any unreadable or malformed file fails the whole load.
func (l *ReportLoader) LoadAndMerge(ctx context.Context, paths []string) (*coverage.Report, error) {
	if len(paths) == 0 {
		return nil, domain.NewInvalidInputError("no coverage reports to load", nil)
	}

	tasks := make([]*parseReportTask, len(paths))
	executable := make([]domain.ExecutableTask, len(paths))
	for i, p := range paths {
		tasks[i] = &parseReportTask{path: p}
		executable[i] = tasks[i]
	}

	if err := l.executor.Execute(ctx, executable); err != nil {
		var agg *AggregatedError
		if errors.As(err, &agg) && len(agg.Errors) == 1 {
			return nil, agg.Errors[0].Err
		}
		return nil, err
	}

	reports := make([]*coverage.Report, len(tasks))
	for i, t := range tasks {
		reports[i] = t.report
	}
	return coverage.MergeReports(reports...), nil
}
