package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/tradespace-search/kb"
)

// ErrUnknownOption is returned when a select is changed to an id that is not
// among its loaded options.
var ErrUnknownOption = errors.New("unknown option")

// Select is a template picker. The empty value selects the built-in default.
type Select struct {
	kind     kb.Kind
	value    string
	store    *kb.KnowledgeBase
	handlers []func(context.Context, *Select) error
}

// NewSelect binds a select to the option list of kind in store. A nil store
// accepts any id.
func NewSelect(kind kb.Kind, store *kb.KnowledgeBase) *Select {
	return &Select{kind: kind, store: store}
}

func (s *Select) Kind() kb.Kind   { return s.kind }
func (s *Select) Value() string   { return s.value }
func (s *Select) IsDefault() bool { return s.value == "" }

// Options lists the choices after the default entry.
func (s *Select) Options() []kb.Option {
	if s.store == nil {
		return nil
	}
	return s.store.Options(s.kind)
}

// Set writes id without running handlers.
func (s *Select) Set(id string) { s.value = id }

// Change selects id and runs the change handlers. When options are loaded, a
// non-empty id must be one of them.
func (s *Select) Change(ctx context.Context, id string) error {
	if id != "" && s.store != nil && len(s.store.Options(s.kind)) > 0 && !s.store.Has(s.kind, id) {
		return fmt.Errorf("%w: %s %q", ErrUnknownOption, s.kind, id)
	}
	s.value = id
	for _, fn := range s.handlers {
		if err := fn(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// OnChange registers fn to run after every change.
func (s *Select) OnChange(fn func(context.Context, *Select) error) {
	s.handlers = append(s.handlers, fn)
}

// PayloadLookup resolves the first payload instrument of a satellite.
type PayloadLookup interface {
	PayloadInstrumentID(ctx context.Context, satelliteID string) (string, error)
}

// LinkTemplateSelects makes the instrument select follow the satellite
// select: picking a satellite selects its first payload instrument, or the
// default when it has none, and clearing the satellite clears the instrument.
// With a nil lookup only the clearing rule applies.
func LinkTemplateSelects(satellite, instrument *Select, lookup PayloadLookup) {
	satellite.OnChange(func(ctx context.Context, s *Select) error {
		if s.Value() == "" {
			instrument.Set("")
			return nil
		}
		if lookup == nil {
			return nil
		}
		id, err := lookup.PayloadInstrumentID(ctx, s.Value())
		if err != nil {
			return fmt.Errorf("payload of satellite %q: %w", s.Value(), err)
		}
		instrument.Set(id)
		return nil
	})
}
