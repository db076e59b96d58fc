package mapview

import (
	"errors"
	"math"
	"strings"
	"sync"

	"foodfinder/internal/domain"
)

// Ho Chi Minh City.
const (
	InitialCenterLng = 106.6707418
	InitialCenterLat = 10.8546639
	InitialZoom      = 10.12
)

const (
	colorDefault  = "red"
	colorSelected = "blue"

	searchResultZoom = 14
	routeFitPadding  = 20

	// screen-space hit tolerance for marker clicks
	clickTolerancePx = 12.0
)

var (
	ErrClosed          = errors.New("map view closed")
	ErrNoSelection     = errors.New("no restaurant selected")
	ErrDirectionActive = errors.New("direction overlay already active")
	ErrCanceled        = errors.New("direction process canceled")
	ErrNoPendingFix    = errors.New("no direction flow awaiting a fix")
)

// View is the server-held state of one map surface. It is an exclusively
// owned resource per session: opened by the registry, released on logout.
// All mutation happens under mu; the long-lived direction flow re-checks
// its generation after every suspension point.
type View struct {
	mu sync.Mutex

	closed  bool
	dataset []domain.RestaurantRecord
	byTitle map[string]domain.RestaurantRecord
	fc      FeatureCollection

	center domain.Coords
	zoom   float64

	selected    *domain.RestaurantRecord
	detailShown bool

	// layer state applied by the client
	highlightTitle string // "" = all default
	filterTitle    string // "" = unfiltered

	camera *CameraMove // pending, consumed by Snapshot

	directions domain.DirectionsClient
	dir        directionState
}

type directionState struct {
	active   bool
	gen      uint64 // cancellation token shared by every continuation
	fixCh    chan domain.Coords
	distance *Distance
	route    *LineGeometry
}

type Distance struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type CameraMove struct {
	Action  string      `json:"action"` // flyTo | fitBounds
	Center  *[2]float64 `json:"center,omitempty"`
	Zoom    *float64    `json:"zoom,omitempty"`
	Bounds  *[4]float64 `json:"bounds,omitempty"` // [minLng, minLat, maxLng, maxLat]
	Padding int         `json:"padding,omitempty"`
}

func NewView(dataset []domain.RestaurantRecord, directions domain.DirectionsClient) *View {
	byTitle := make(map[string]domain.RestaurantRecord, len(dataset))
	for _, r := range dataset {
		byTitle[r.Title] = r
	}
	return &View{
		dataset:    dataset,
		byTitle:    byTitle,
		fc:         collectionFrom(dataset),
		center:     domain.Coords{Lng: InitialCenterLng, Lat: InitialCenterLat},
		zoom:       InitialZoom,
		directions: directions,
	}
}

// SetViewport mirrors the client's move events so hit-testing sees the
// zoom the user is actually at.
func (v *View) SetViewport(center domain.Coords, zoom float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.center = center
	v.zoom = zoom
	return nil
}

// HandleClick hit-tests the rendered restaurant layer at the clicked
// position. A hit selects the feature and flies the camera to it; a miss
// is a no-op.
func (v *View) HandleClick(at domain.Coords) (*RestaurantDetail, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, ErrClosed
	}

	rec, ok := v.hitTest(at)
	if !ok {
		return nil, nil
	}
	v.selected = &rec
	v.detailShown = true
	v.highlightTitle = rec.Title
	center := [2]float64{rec.Longitude, rec.Latitude}
	v.camera = &CameraMove{Action: "flyTo", Center: &center}
	return detailFrom(rec), nil
}

// hitTest finds the closest visible feature within clickTolerancePx at the
// current zoom, in Web Mercator screen space. Caller holds mu.
func (v *View) hitTest(at domain.Coords) (domain.RestaurantRecord, bool) {
	px, py := mercatorPx(at, v.zoom)
	best := math.MaxFloat64
	var hit domain.RestaurantRecord
	for _, r := range v.dataset {
		if v.filterTitle != "" && r.Title != v.filterTitle {
			continue // filtered out of the rendered layer
		}
		fx, fy := mercatorPx(r.Coords(), v.zoom)
		d := math.Hypot(px-fx, py-fy)
		if d < best {
			best = d
			hit = r
		}
	}
	return hit, best <= clickTolerancePx
}

func mercatorPx(c domain.Coords, zoom float64) (x, y float64) {
	scale := 256 * math.Pow(2, zoom)
	x = (c.Lng + 180) / 360 * scale
	rad := c.Lat * math.Pi / 180
	y = (1 - math.Log(math.Tan(rad)+1/math.Cos(rad))/math.Pi) / 2 * scale
	return x, y
}

// SearchMatch is one local-geocoder result.
type SearchMatch struct {
	Title     string     `json:"title"`
	PlaceName string     `json:"placeName"`
	Center    [2]float64 `json:"center"`
}

// Search matches the query case-insensitively as a substring of every
// loaded title and returns all matches. The first match is acted on:
// selected, highlighted, camera sent to it. (The geocoder fires a single
// result event; with several matches we take the first.)
func (v *View) Search(query string) ([]SearchMatch, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, ErrClosed
	}

	q := strings.ToLower(query)
	var matches []SearchMatch
	for _, r := range v.dataset {
		if !strings.Contains(strings.ToLower(r.Title), q) {
			continue
		}
		addr := r.Address
		if addr == "" {
			addr = "Address not available"
		}
		matches = append(matches, SearchMatch{
			Title:     r.Title,
			PlaceName: r.Title + " - " + addr,
			Center:    [2]float64{r.Longitude, r.Latitude},
		})
	}
	if len(matches) == 0 {
		return nil, nil
	}
	v.selectByTitle(matches[0].Title)
	return matches, nil
}

// SelectResult applies a geocoder result the client picked. A title absent
// from the dataset resets the paint state and clears the selection.
func (v *View) SelectResult(title string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	if _, ok := v.byTitle[title]; !ok {
		v.highlightTitle = ""
		v.selected = nil
		v.detailShown = false
		return nil
	}
	v.selectByTitle(title)
	return nil
}

// selectByTitle selects a known title and aims the camera at it with the
// geocoder result zoom. Caller holds mu.
func (v *View) selectByTitle(title string) {
	rec := v.byTitle[title]
	v.selected = &rec
	v.detailShown = true
	v.highlightTitle = rec.Title
	center := [2]float64{rec.Longitude, rec.Latitude}
	zoom := float64(searchResultZoom)
	v.camera = &CameraMove{Action: "flyTo", Center: &center, Zoom: &zoom}
}

// ClearSearch resets every feature to the default paint state and drops
// the selection.
func (v *View) ClearSearch() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.highlightTitle = ""
	v.selected = nil
	v.detailShown = false
	return nil
}

// CloseDetail hides the sidebar. While a direction overlay is active the
// selection survives so the route stays anchored; otherwise it is cleared
// with the highlight.
func (v *View) CloseDetail() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.detailShown = false
	if !v.dir.active {
		v.highlightTitle = ""
		v.selected = nil
	}
	return nil
}

// Release tears the view down. Any in-flight direction flow is woken and
// discards its result.
func (v *View) Release() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.cancelDirectionsLocked()
	v.closed = true
	v.dataset = nil
	v.byTitle = nil
	v.fc = FeatureCollection{}
}

// ---- snapshot ----

type LayerState struct {
	Paint  any    `json:"circleColor"`
	Filter any    `json:"filter"`
	Cursor string `json:"cursor"`
}

type DirectionView struct {
	Active      bool          `json:"active"`
	AwaitingFix bool          `json:"awaitingFix"`
	Distance    *Distance     `json:"distance,omitempty"`
	Route       *LineGeometry `json:"route,omitempty"`
}

type Snapshot struct {
	Center      [2]float64        `json:"center"`
	Zoom        float64           `json:"zoom"`
	Restaurants FeatureCollection `json:"restaurants"`
	Layer       LayerState        `json:"layer"`
	Selected    *RestaurantDetail `json:"selected,omitempty"`
	DetailShown bool              `json:"detailShown"`
	Direction   DirectionView     `json:"direction"`
	Camera      *CameraMove       `json:"camera,omitempty"`
}

// State returns the full client-facing view state. A pending camera move
// is delivered exactly once.
func (v *View) State() (Snapshot, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return Snapshot{}, ErrClosed
	}

	s := Snapshot{
		Center:      [2]float64{v.center.Lng, v.center.Lat},
		Zoom:        v.zoom,
		Restaurants: v.fc,
		Layer: LayerState{
			Paint:  paintExpression(v.highlightTitle),
			Filter: filterExpression(v.filterTitle),
			Cursor: "pointer",
		},
		DetailShown: v.detailShown,
		Direction: DirectionView{
			Active:      v.dir.active,
			AwaitingFix: v.dir.fixCh != nil,
			Distance:    v.dir.distance,
			Route:       v.dir.route,
		},
		Camera: v.camera,
	}
	if v.selected != nil && v.detailShown {
		s.Selected = detailFrom(*v.selected)
	}
	v.camera = nil
	return s, nil
}

func paintExpression(highlighted string) any {
	if highlighted == "" {
		return colorDefault
	}
	return []any{"case",
		[]any{"==", []any{"get", "title"}, highlighted},
		colorSelected,
		colorDefault,
	}
}

func filterExpression(title string) any {
	if title == "" {
		return nil
	}
	return []any{"==", []any{"get", "title"}, title}
}
