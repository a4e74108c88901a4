package browser

import (
	"context"
	"fmt"
	"time"

	"ui-recorder/internal/entity"
	"ui-recorder/pkg/apperr"
	"ui-recorder/pkg/logg"
	"ui-recorder/pkg/tracing"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Pages lists the open tabs of the browser context, in opening order.
func (m *Manager) Pages(ctx context.Context) ([]entity.WindowInfo, error) {
	const op = "Pages"

	if err := m.checkReady(op); err != nil {
		return nil, err
	}

	pages := m.browserContext.Pages()
	windows := make([]entity.WindowInfo, 0, len(pages))

	for i, p := range pages {
		title, _ := p.Title()
		windows = append(windows, entity.WindowInfo{
			Index:   i,
			Title:   title,
			URL:     p.URL(),
			Current: p == m.page,
		})
	}

	return windows, nil
}

func (m *Manager) SwitchToPage(ctx context.Context, index int) (err error) {
	const op = "SwitchToPage"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.Int("index", index))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.Int("index", index))
	defer func() {
		step.End(err)
	}()

	if err = m.checkReady(op); err != nil {
		return err
	}

	pages := m.browserContext.Pages()
	if index < 0 || index >= len(pages) {
		return apperr.InvalidReqError(op, "index", fmt.Errorf("window %d out of range, %d open", index, len(pages)))
	}

	m.activate(pages[index])
	logger.Info("Switched window", zap.String(logg.URL, m.page.URL()))

	return nil
}

// FollowNewPage switches to the newest tab when more than before are open, which is
// how links with target=_blank behave after a click.
func (m *Manager) FollowNewPage(ctx context.Context, before int) (switched bool, err error) {
	const op = "FollowNewPage"
	logger := m.logger.With(zap.String(logg.Operation, op))

	if err = m.checkReady(op); err != nil {
		return false, err
	}

	time.Sleep(newPageWait)

	pages := m.browserContext.Pages()
	if len(pages) <= before {
		return false, nil
	}

	m.activate(pages[len(pages)-1])
	logger.Info("New window opened, switched to it",
		zap.Int("windows", len(pages)),
		zap.String(logg.URL, m.page.URL()))

	return true, nil
}

func (m *Manager) activate(page playwright.Page) {
	m.page = page

	if err := page.BringToFront(); err != nil {
		m.logger.Debug("BringToFront failed", zap.Error(err))
	}

	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(float64(m.config.BrowserConfig.Timeout)),
	}); err != nil {
		m.logger.Debug("Wait for load state failed", zap.Error(err))
	}
}
