package scenario

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ui-recorder/internal/config"
	"ui-recorder/internal/entity"
	"ui-recorder/pkg/apperr"
	"ui-recorder/pkg/logg"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const storeName = "ScenarioStore"

// FileStore keeps the scenario as YAML and writes the parameter table next to it.
type FileStore struct {
	path      string
	tablePath string
	logger    *zap.Logger
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewFileStore(params Params) *FileStore {
	return &FileStore{
		path:      params.Config.RecorderConfig.ScenarioFile,
		tablePath: params.Config.RecorderConfig.TableFile,
		logger:    params.Logger.With(zap.String(logg.Layer, storeName)),
	}
}

func (s *FileStore) Save(_ context.Context, sc *entity.Scenario) error {
	const op = "Save"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.SessionID, sc.SessionID))

	var buf bytes.Buffer
	if err := Encode(&buf, sc); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "encode_failed",
			apperr.MetaStage:  apperr.StageScenario,
		})
	}

	if err := writeFile(s.path, buf.Bytes()); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "write_failed",
			apperr.MetaStage:  apperr.StageScenario,
			apperr.MetaPath:   s.path,
		})
	}

	if s.tablePath != "" {
		if err := writeFile(s.tablePath, []byte(RenderTable(sc))); err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "write_failed",
				apperr.MetaStage:  apperr.StageScenario,
				apperr.MetaPath:   s.tablePath,
			})
		}
	}

	logger.Info("Scenario saved",
		zap.String("path", s.path),
		zap.Int("preconditions", len(sc.Preconditions)),
		zap.Int("requirements", len(sc.Requirements)))

	return nil
}

func (s *FileStore) Load(_ context.Context) (*entity.Scenario, error) {
	const op = "Load"

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFoundError(op, err)
		}

		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "open_failed",
			apperr.MetaStage:  apperr.StageScenario,
			apperr.MetaPath:   s.path,
		})
	}
	defer f.Close()

	sc, err := Decode(f)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason: "decode_failed",
			apperr.MetaStage:  apperr.StageScenario,
			apperr.MetaPath:   s.path,
		})
	}

	return sc, nil
}

// writeFile replaces path through a temp file and rename.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("rename %s: %w", tmp.Name(), err)
	}

	return nil
}
