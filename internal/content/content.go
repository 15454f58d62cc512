// Package content holds the static portfolio data rendered by the site.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed portfolio.yaml
var defaultYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid portfolio content")

type Portfolio struct {
	Profile    Profile    `yaml:"profile"`
	Socials    []Social   `yaml:"socials"`
	Experience Experience `yaml:"experience"`
	Projects   []Project  `yaml:"projects"`
	Skills     []string   `yaml:"skills"`
	Languages  []Language `yaml:"languages"`
	CV         CV         `yaml:"cv"`
}

type Profile struct {
	Name         string `yaml:"name"`
	Subtitle     string `yaml:"subtitle"`
	Availability string `yaml:"availability"`
	Location     string `yaml:"location"`
	Avatar       string `yaml:"avatar"`
	Email        string `yaml:"email"`
}

type Social struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type Experience struct {
	Role     string   `yaml:"role"`
	Company  string   `yaml:"company"`
	Location string   `yaml:"location"`
	Tasks    []string `yaml:"tasks"`
}

// Project is one panel of the projects accordion.
type Project struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Icon    string   `yaml:"icon"`
	Summary string   `yaml:"summary"`
	Details []string `yaml:"details"`
}

type Language struct {
	Name  string `yaml:"name"`
	Level string `yaml:"level"`
	Flag  string `yaml:"flag"`
}

type CV struct {
	URL      string `yaml:"url"`
	Filename string `yaml:"filename"`
}

// ProjectIDs returns the project ids in display order.
func (p *Portfolio) ProjectIDs() []string {
	ids := make([]string, len(p.Projects))
	for i, pr := range p.Projects {
		ids[i] = pr.ID
	}
	return ids
}

// Project looks a project up by id.
func (p *Portfolio) Project(id string) (Project, bool) {
	for _, pr := range p.Projects {
		if pr.ID == id {
			return pr, true
		}
	}
	return Project{}, false
}

// Validate reports the first problem that would break rendering.
func (p *Portfolio) Validate() error {
	if strings.TrimSpace(p.Profile.Name) == "" {
		return fmt.Errorf("%w: profile.name is required", ErrInvalid)
	}
	seen := make(map[string]bool, len(p.Projects))
	for i, pr := range p.Projects {
		if strings.TrimSpace(pr.ID) == "" {
			return fmt.Errorf("%w: projects[%d].id is required", ErrInvalid, i)
		}
		if seen[pr.ID] {
			return fmt.Errorf("%w: duplicate project id %q", ErrInvalid, pr.ID)
		}
		seen[pr.ID] = true
		if strings.TrimSpace(pr.Title) == "" {
			return fmt.Errorf("%w: projects[%d].title is required", ErrInvalid, i)
		}
	}
	if strings.TrimSpace(p.CV.URL) == "" {
		return fmt.Errorf("%w: cv.url is required", ErrInvalid)
	}
	return nil
}

// Parse decodes and validates a YAML portfolio. Skills are de-duplicated
// keeping their first position.
func Parse(data []byte) (*Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode portfolio: %w", err)
	}
	p.Skills = dedupe(p.Skills)
	if p.CV.Filename == "" {
		p.CV.Filename = p.Profile.Name + " - CV.pdf"
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a portfolio from path.
func Load(path string) (*Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in portfolio.
func Default() *Portfolio {
	p, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded portfolio: %v", err))
	}
	return p
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Store holds the current portfolio and may be swapped at runtime. Every Set
// bumps the store's version.
type Store struct {
	mu      sync.RWMutex
	p       *Portfolio
	version uint64
}

func NewStore(p *Portfolio) *Store {
	return &Store{p: p}
}

// Get returns the current portfolio. Callers must not modify it.
func (s *Store) Get() *Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// Current returns the portfolio together with its version.
func (s *Store) Current() (*Portfolio, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p, s.version
}

// ProjectIDs returns the current project ids and the version they belong to.
func (s *Store) ProjectIDs() ([]string, uint64) {
	p, version := s.Current()
	return p.ProjectIDs(), version
}

func (s *Store) Set(p *Portfolio) {
	s.mu.Lock()
	s.p = p
	s.version++
	s.mu.Unlock()
}
