package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/artemshloyda/photoresizer/internal/resizer"
)

// ErrPresetNotFound - сохранённого пресета с таким именем нет.
var ErrPresetNotFound = errors.New("пресет не найден")

// SavedPreset - пресет, сохранённый пользователем через --save-preset.
type SavedPreset struct {
	Name   string
	Path   string
	Config *FileConfig
}

// Policy возвращает политику, записанную в пресете.
// false, если пресет её не задаёт или файл не прочитался.
func (p SavedPreset) Policy() (resizer.Policy, bool) {
	if p.Config == nil || p.Config.Resize == nil {
		return resizer.Policy{}, false
	}

	r := p.Config.Resize
	if r.Preset != "" {
		if builtin, ok := Presets[Preset(r.Preset)]; ok {
			return resizer.Policy{
				ScalingFactor:        builtin.ScalingFactor,
				SingleSideResolution: builtin.SingleSideResolution,
			}, true
		}
	}
	if r.ScalingFactor == 0 && r.SingleSideResolution == 0 {
		return resizer.Policy{}, false
	}

	policy := resizer.DefaultPolicy()
	if r.ScalingFactor != 0 {
		policy.ScalingFactor = r.ScalingFactor
	}
	policy.SingleSideResolution = r.SingleSideResolution
	return policy, true
}

// PresetStore хранит именованные пресеты YAML файлами в одной директории.
type PresetStore struct {
	dir string
}

// NewPresetStore создаёт хранилище в dir. Директория создаётся при первом сохранении.
func NewPresetStore(dir string) *PresetStore {
	return &PresetStore{dir: dir}
}

// DefaultPresetStore возвращает хранилище в ~/.config/photoresizer/presets.
func DefaultPresetStore() (*PresetStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить домашнюю директорию: %w", err)
	}
	return NewPresetStore(filepath.Join(home, ".config", "photoresizer", "presets")), nil
}

// Dir возвращает директорию хранилища.
func (s *PresetStore) Dir() string {
	return s.dir
}

// presetFileName оставляет в имени только латиницу, цифры, '-' и '_'.
func presetFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, name)
}

func (s *PresetStore) path(name string) (string, error) {
	file := presetFileName(name)
	if file == "" {
		return "", fmt.Errorf("некорректное имя пресета: %q", name)
	}
	return filepath.Join(s.dir, file+".yaml"), nil
}

// Save записывает отличия cfg от умолчаний как пресет name.
func (s *PresetStore) Save(name string, cfg *Config) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("не удалось создать директорию пресетов: %w", err)
	}

	if err := FromConfig(cfg).SaveToFile(path); err != nil {
		return "", fmt.Errorf("не удалось сохранить пресет: %w", err)
	}
	return path, nil
}

// Load читает пресет name.
func (s *PresetStore) Load(name string) (*FileConfig, string, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, "", err
	}

	fc, err := LoadFromFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("пресет '%s': %w", name, err)
	}
	if fc == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	return fc, path, nil
}

// Apply загружает пресет name и накладывает его на cfg.
func (s *PresetStore) Apply(name string, cfg *Config) (string, error) {
	fc, path, err := s.Load(name)
	if err != nil {
		return "", err
	}
	if err := fc.ApplyToConfig(cfg); err != nil {
		return "", fmt.Errorf("пресет '%s': %w", name, err)
	}
	return path, nil
}

// List возвращает сохранённые пресеты, отсортированные по имени.
// Повреждённый файл попадает в список с Config == nil.
func (s *PresetStore) List() ([]SavedPreset, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать директорию пресетов: %w", err)
	}

	var presets []SavedPreset
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		fc, _ := LoadFromFile(path)
		presets = append(presets, SavedPreset{
			Name:   strings.TrimSuffix(entry.Name(), ext),
			Path:   path,
			Config: fc,
		})
	}

	slices.SortFunc(presets, func(a, b SavedPreset) int {
		return strings.Compare(a.Name, b.Name)
	})
	return presets, nil
}

// Delete удаляет пресет name.
func (s *PresetStore) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrPresetNotFound, name)
		}
		return fmt.Errorf("не удалось удалить пресет: %w", err)
	}
	return nil
}
