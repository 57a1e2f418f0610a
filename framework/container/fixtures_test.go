package container_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/km-arc/go-autowire/framework/container"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Logger struct{ Prefix string }

func NewLogger() *Logger { return &Logger{Prefix: "app"} }

type Cache struct{ Driver string }

func NewCache() *Cache { return &Cache{Driver: "memory"} }

type Service struct {
	Logger  *Logger
	Name    string
	Timeout time.Duration
	Cache   *Cache
}

func NewService(l *Logger, name string, timeout time.Duration) *Service {
	return &Service{Logger: l, Name: name, Timeout: timeout}
}

func (s *Service) SetCache(c *Cache) { s.Cache = c }

type Store interface{ Kind() string }

type memStore struct{}

func (memStore) Kind() string { return "memory" }

func newMemStore() *memStore { return &memStore{} }

type Repo struct{ Store Store }

func NewRepo(s Store) *Repo { return &Repo{Store: s} }

type Pool struct{ Size int }

func NewPool(size int) *Pool { return &Pool{Size: size} }

type Report struct{ Logger *Logger }

func NewReport(l *Logger) *Report { return &Report{Logger: l} }

type CycleA struct{ B *CycleB }
type CycleB struct{ A *CycleA }

func NewCycleA(b *CycleB) *CycleA { return &CycleA{B: b} }
func NewCycleB(a *CycleA) *CycleB { return &CycleB{A: a} }

type Kernel struct{ C *container.Container }

func NewKernel(c *container.Container) *Kernel { return &Kernel{C: c} }

var errBoom = errors.New("boom")

type Broken struct{}

func NewBroken() (*Broken, error) { return nil, errBoom }

type Mailer struct{ Transport string }

func NewMailer() *Mailer { return &Mailer{} }

func (m *Mailer) SetTransport(name string) error {
	if name == "" {
		return errBoom
	}
	m.Transport = name
	return nil
}

// Widget is built through a constructor returning the interface.
type Widget interface {
	Reset()
	SetLogger(l *Logger)
	State() (resets int, logger *Logger)
}

type gadget struct {
	resets int
	logger *Logger
}

func NewWidget() Widget { return &gadget{} }

func (g *gadget) Reset()                { g.resets++ }
func (g *gadget) SetLogger(l *Logger)   { g.logger = l }
func (g *gadget) State() (int, *Logger) { return g.resets, g.logger }

type Gauge struct {
	N int8
	U uint
	F float32
}

func NewGauge(n int8, u uint, f float32) *Gauge { return &Gauge{N: n, U: u, F: f} }

var (
	loggerKey  = container.TypeKey(&Logger{})
	cacheKey   = container.TypeKey(&Cache{})
	serviceKey = container.TypeKey(&Service{})
	storeKey   = container.TypeKey((*Store)(nil))
	memKey     = container.TypeKey(&memStore{})
	repoKey    = container.TypeKey(&Repo{})
	poolKey    = container.TypeKey(&Pool{})
	reportKey  = container.TypeKey(&Report{})
	cycleAKey  = container.TypeKey(&CycleA{})
	cycleBKey  = container.TypeKey(&CycleB{})
	kernelKey  = container.TypeKey(&Kernel{})
	brokenKey  = container.TypeKey(&Broken{})
	mailerKey  = container.TypeKey(&Mailer{})
	gaugeKey   = container.TypeKey(&Gauge{})
)

const (
	resetWidget  = "app.ResetWidget"
	loggedWidget = "app.LoggedWidget"
)

func newCatalog(t *testing.T) *container.Catalog {
	t.Helper()
	cat := container.NewCatalog()
	cat.MustDefine(container.Class{Constructor: NewLogger})
	cat.MustDefine(container.Class{Constructor: NewCache})
	cat.MustDefine(container.Class{
		Constructor: NewService,
		Params: []container.Param{
			{Name: "logger"},
			{Name: "name"},
			{Name: "timeout", Optional: true, Default: "5s"},
		},
		Setters: []container.Setter{{Method: "SetCache", Params: []string{"cache"}}},
	})
	cat.MustDefine(container.Class{Constructor: newMemStore})
	cat.MustDefine(container.Class{Constructor: NewRepo})
	cat.MustDefine(container.Class{
		Constructor: NewPool,
		Params:      []container.Param{{Name: "size", Optional: true, Default: 10}},
	})
	cat.MustDefine(container.Class{
		Constructor: NewReport,
		Params:      []container.Param{{Name: "logger", Optional: true}},
	})
	cat.MustDefine(container.Class{Constructor: NewCycleA})
	cat.MustDefine(container.Class{Constructor: NewCycleB})
	cat.MustDefine(container.Class{Constructor: NewKernel})
	cat.MustDefine(container.Class{Constructor: NewBroken})
	cat.MustDefine(container.Class{
		Constructor: NewMailer,
		Setters:     []container.Setter{{Method: "SetTransport", Params: []string{"transport"}}},
	})
	cat.MustDefine(container.Class{
		Name:        resetWidget,
		Constructor: NewWidget,
		Setters:     []container.Setter{{Method: "Reset"}},
	})
	cat.MustDefine(container.Class{
		Name:        loggedWidget,
		Constructor: NewWidget,
		Setters:     []container.Setter{{Method: "SetLogger", Params: []string{"logger"}}},
	})
	cat.MustDefine(container.Class{
		Constructor: NewGauge,
		Params:      []container.Param{{Name: "n"}, {Name: "u"}, {Name: "f"}},
	})
	return cat
}

func newContainer(t *testing.T, opts ...container.ContainerOption) *container.Container {
	t.Helper()
	return container.New(append([]container.ContainerOption{container.WithCatalog(newCatalog(t))}, opts...)...)
}

// countingInspector records how often each class is inspected.
type countingInspector struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCountingInspector() *countingInspector {
	return &countingInspector{calls: make(map[string]int)}
}

func (s *countingInspector) Inspect(class *container.Class) (container.Entry, error) {
	s.mu.Lock()
	s.calls[class.Name]++
	s.mu.Unlock()
	return container.ReflectInspector{}.Inspect(class)
}

func (s *countingInspector) count(class string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[class]
}

func (s *countingInspector) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}
