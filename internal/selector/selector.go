// Package selector implements the zone selector: the pointer-driven
// interaction state machine that owns the zone collection, the current
// category filter and the selection set, and drives the active
// selection strategy with events delivered by the rendering provider.
package selector

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/anystubbs/zone-picker/internal/input"
	"github.com/anystubbs/zone-picker/internal/model"
	"github.com/anystubbs/zone-picker/internal/observability"
	"github.com/anystubbs/zone-picker/internal/provider"
	"github.com/anystubbs/zone-picker/internal/strategy"
)

// GestureEvent is the record published to an optional sink after each
// completed gesture that changed the selection.
type GestureEvent struct {
	Kind     string    `json:"kind"` // click, lasso, path, api, clear
	Category string    `json:"category,omitempty"`
	Variant  string    `json:"variant,omitempty"`
	Selected []string  `json:"selected"`
	At       time.Time `json:"at"`
}

// EventSink receives completed-gesture events.
type EventSink interface {
	Publish(ctx context.Context, ev GestureEvent) error
}

const sinkPublishTimeout = 2 * time.Second

type gestureState int

const (
	stateIdle gestureState = iota
	stateArmedClick
	stateDragging
)

// Options configures a Selector.
type Options struct {
	// Mode is the initial drag mode.
	Mode model.DragMode
	// DragThresholdPx is the minimum pointer travel before an armed
	// click commits to a drag. Zero means the first move commits.
	DragThresholdPx float64
	Logger          *slog.Logger
	Modifier        *input.Modifier
	Sink            EventSink
}

// Selector is the orchestrator. Zones are owned exclusively by the
// selector for the session; Selected flags are mutated here and
// nowhere else.
type Selector struct {
	log  *slog.Logger
	prov provider.RenderingProvider

	zones map[string]*model.Zone
	order []string
	index *rtree.Rtree
	cats  map[string]model.CategoryConfig

	category string
	variant  string

	mode      model.DragMode
	threshold float64
	modifier  *input.Modifier
	sink      EventSink

	onSelection func([]*model.Zone)
	onCategory  func(categoryID, variantID string)

	// Gesture state. The strategy is captured at drag start; changing
	// the drag mode mid-drag only affects the next gesture.
	state         gestureState
	dragStart     geom.Point
	clickedZoneID string
	shape         *model.SelectionShape
	gestureStrat  strategy.Strategy

	unsubs []func()
	closed bool
}

// New wires a selector to its provider, indexes the zones and renders
// the initial category. The zone slice is taken over by the selector.
func New(prov provider.RenderingProvider, zones []*model.Zone, cats []model.CategoryConfig, opts Options) (*Selector, error) {
	if prov == nil {
		return nil, errors.New("rendering provider is required")
	}
	if !opts.Mode.Valid() {
		return nil, errors.New("invalid initial drag mode")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Modifier == nil {
		opts.Modifier = input.NewModifier()
	}

	s := &Selector{
		log:       opts.Logger,
		prov:      prov,
		zones:     make(map[string]*model.Zone, len(zones)),
		order:     make([]string, 0, len(zones)),
		index:     rtree.NewTree(25, 50),
		cats:      map[string]model.CategoryConfig{},
		mode:      opts.Mode,
		threshold: opts.DragThresholdPx,
		modifier:  opts.Modifier,
		sink:      opts.Sink,
	}
	for _, z := range zones {
		if z == nil || z.ID == "" || z.Geometry == nil {
			return nil, errors.New("zones must have an id and a geometry")
		}
		if _, dup := s.zones[z.ID]; dup {
			return nil, errors.New("duplicate zone id " + z.ID)
		}
		s.zones[z.ID] = z
		s.order = append(s.order, z.ID)
		s.index.Insert(z)
	}
	for _, c := range cats {
		s.cats[c.ID] = c
	}
	if len(cats) > 0 {
		s.category = cats[0].ID
		if v, ok := cats[0].VariantForZoom(prov.ZoomLevel()); ok {
			s.variant = v
		}
	}

	if err := prov.Initialize(); err != nil {
		return nil, err
	}

	s.unsubs = append(s.unsubs,
		prov.OnPointerDown(s.onPointerDown),
		prov.OnPointerMove(s.onPointerMove),
		prov.OnPointerUp(s.onPointerUp),
		prov.OnViewportChange(s.onViewportChange),
		s.modifier.Subscribe(s.onModifierChange),
	)

	s.refreshRendering()
	return s, nil
}

// Close unsubscribes from the provider, discards any in-flight shape
// and destroys the provider surface.
func (s *Selector) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, u := range s.unsubs {
		u()
	}
	s.unsubs = nil
	if s.shape != nil {
		s.prov.RemoveSelectionShape(s.shape)
	}
	s.resetGesture()
	return s.prov.Destroy()
}

// OnSelectionChange sets the callback fired with the full selected set
// whenever selection actually changes; at most once per gesture.
func (s *Selector) OnSelectionChange(fn func(selected []*model.Zone)) {
	s.onSelection = fn
}

// OnCategoryChange sets the callback fired when the current category or
// variant switches.
func (s *Selector) OnCategoryChange(fn func(categoryID, variantID string)) {
	s.onCategory = fn
}

// SetDragMode switches the strategy used by future gestures. An
// in-progress drag keeps the strategy captured at its start.
func (s *Selector) SetDragMode(m model.DragMode) error {
	if !m.Valid() {
		return errors.New("unrecognized drag mode")
	}
	s.mode = m
	return nil
}

// DragMode returns the mode future gestures will use.
func (s *Selector) DragMode() model.DragMode { return s.mode }

// ToggleZoneSelection flips one zone's selected flag. Unknown ids and
// zones outside the current category are silent no-ops: they are
// normal UI races, not errors.
func (s *Selector) ToggleZoneSelection(id string) {
	z, ok := s.zones[id]
	if !ok || !s.isCurrent(z) {
		s.log.Debug("toggle ignored", "zone", id)
		return
	}
	z.Selected = !z.Selected
	observability.IncZonesToggled(1)
	s.emitSelection()
	s.publish("api")
}

// ClearSelection deselects every zone regardless of category and fires
// the selection callback with the empty set.
func (s *Selector) ClearSelection() {
	for _, z := range s.zones {
		z.Selected = false
	}
	s.emitSelection()
	s.publish("clear")
}

// SelectedZones returns all selected zones across every category, in
// load order.
func (s *Selector) SelectedZones() []*model.Zone {
	out := []*model.Zone{}
	for _, id := range s.order {
		if z := s.zones[id]; z.Selected {
			out = append(out, z)
		}
	}
	return out
}

// CurrentZones returns the zones in the current category, in load
// order.
func (s *Selector) CurrentZones() []*model.Zone {
	out := []*model.Zone{}
	for _, id := range s.order {
		if z := s.zones[id]; s.isCurrent(z) {
			out = append(out, z)
		}
	}
	return out
}

// Category returns the current category and variant filter.
func (s *Selector) Category() (categoryID, variantID string) {
	return s.category, s.variant
}

// SetCategory switches the filter deciding which zones are current.
// Selection state is never cleared by a category switch. An unknown
// category id is a silent no-op.
func (s *Selector) SetCategory(id, variantID string) {
	if id != "" && !s.knownCategory(id) {
		s.log.Debug("category switch ignored", "category", id)
		return
	}
	s.category = id
	s.variant = variantID
	if variantID == "" {
		if c, ok := s.cats[id]; ok {
			if v, ok := c.VariantForZoom(s.prov.ZoomLevel()); ok {
				s.variant = v
			}
		}
	}
	s.refreshRendering()
	if s.onCategory != nil {
		s.onCategory(s.category, s.variant)
	}
}

func (s *Selector) knownCategory(id string) bool {
	if _, ok := s.cats[id]; ok {
		return true
	}
	for _, z := range s.zones {
		if z.Category == id {
			return true
		}
	}
	return false
}

func (s *Selector) isCurrent(z *model.Zone) bool {
	if s.category == "" {
		return true
	}
	if z.Category != s.category {
		return false
	}
	return s.variant == "" || z.Variant == "" || z.Variant == s.variant
}

// --- pointer state machine ---

func (s *Selector) onPointerDown(ev provider.PointerEvent) {
	s.dragStart = ev.Point
	// Stage the candidate click; selection is not mutated yet.
	if id, ok := s.prov.HitTest(ev.Point); ok {
		s.clickedZoneID = id
	} else {
		s.clickedZoneID = ""
	}
	s.state = stateArmedClick
}

func (s *Selector) onPointerMove(ev provider.PointerEvent) {
	switch s.state {
	case stateArmedClick:
		if s.threshold > 0 && dist(ev.Point, s.dragStart) < s.threshold {
			return
		}
		// Backends that pan on unmodified drags never see a selection
		// drag without the modifier.
		if s.prov.Capabilities().ModifierToDrag && !s.modifier.Held() {
			return
		}
		strat, err := strategy.New(s.mode, s.prov)
		if err != nil {
			s.log.Error("strategy construction failed", "mode", s.mode.String(), "err", err)
			return
		}
		shape, err := strat.Create(s.dragStart)
		if err != nil {
			s.log.Warn("selection shape creation failed", "err", err)
			return
		}
		strat.ApplyStyle(shape, s.modifier.Held())
		s.gestureStrat = strat
		s.shape = shape
		s.state = stateDragging
	case stateDragging:
		s.gestureStrat.Update(s.shape, ev.Point, s.dragStart)
		s.gestureStrat.ApplyStyle(s.shape, s.modifier.Held())
	}
}

func (s *Selector) onPointerUp(ev provider.PointerEvent) {
	switch s.state {
	case stateDragging:
		s.finishDrag()
	case stateArmedClick:
		s.finishClick()
	}
	s.resetGesture()
}

func (s *Selector) finishDrag() {
	strat, shape := s.gestureStrat, s.shape
	strat.Complete(shape, s.dragStart)

	held := s.modifier.Held()
	changed := 0
	for _, id := range s.order {
		z := s.zones[id]
		if !s.isCurrent(z) {
			continue
		}
		hit := strat.Test(z.ID, shape)
		observability.ObserveContainment(strat.Mode().String(), hit)
		if !hit {
			continue
		}
		switch {
		case held && z.Selected:
			z.Selected = false
			changed++
		case !held && !z.Selected:
			z.Selected = true
			changed++
		}
	}
	s.prov.RemoveSelectionShape(shape)
	observability.ObserveGesture(strat.Mode().String(), "drag")
	if changed > 0 {
		observability.IncZonesToggled(changed)
		s.emitSelection()
		s.publish(strat.Mode().String())
	}
}

func (s *Selector) finishClick() {
	observability.ObserveGesture(s.mode.String(), "click")
	id := s.clickedZoneID
	if id == "" {
		return
	}
	z, ok := s.zones[id]
	if !ok || !s.isCurrent(z) {
		return
	}
	z.Selected = !z.Selected
	observability.IncZonesToggled(1)
	s.emitSelection()
	s.publish("click")
}

func (s *Selector) resetGesture() {
	s.state = stateIdle
	s.dragStart = geom.Point{}
	s.clickedZoneID = ""
	s.shape = nil
	s.gestureStrat = nil
}

func (s *Selector) onModifierChange(held bool) {
	// Styling tracks the modifier live; the select/deselect decision is
	// sampled again at pointer-up.
	if s.state == stateDragging {
		s.gestureStrat.ApplyStyle(s.shape, held)
	}
}

func (s *Selector) onViewportChange() {
	if c, ok := s.cats[s.category]; ok {
		if v, ok := c.VariantForZoom(s.prov.ZoomLevel()); ok && v != s.variant {
			s.variant = v
			if s.onCategory != nil {
				s.onCategory(s.category, s.variant)
			}
		}
	}
	s.refreshRendering()
}

// refreshRendering draws the current-category zones inside the viewport
// and removes everything else. Draw calls are idempotent per re-render.
func (s *Selector) refreshRendering() {
	vb := s.prov.ViewportBounds()
	visible := map[string]bool{}
	for _, item := range s.index.SearchIntersect(vb.Geom()) {
		z := item.(*model.Zone)
		visible[z.ID] = true
	}
	for _, id := range s.order {
		z := s.zones[id]
		if s.isCurrent(z) && visible[id] {
			if err := s.prov.RenderZone(z); err != nil {
				s.log.Warn("render zone failed", "zone", id, "err", err)
			}
		} else {
			s.prov.RemoveZone(id)
		}
	}
}

func (s *Selector) emitSelection() {
	selected := s.SelectedZones()
	observability.SetSelectionSize(len(selected))
	if s.onSelection != nil {
		s.onSelection(selected)
	}
}

func (s *Selector) publish(kind string) {
	if s.sink == nil {
		return
	}
	ids := []string{}
	for _, z := range s.SelectedZones() {
		ids = append(ids, z.ID)
	}
	ev := GestureEvent{
		Kind:     kind,
		Category: s.category,
		Variant:  s.variant,
		Selected: ids,
		At:       time.Now().UTC(),
	}
	// Publishing must not stall event delivery.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkPublishTimeout)
		defer cancel()
		if err := s.sink.Publish(ctx, ev); err != nil {
			s.log.Warn("gesture event publish failed", "kind", kind, "err", err)
		}
	}()
}

func dist(a, b geom.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
