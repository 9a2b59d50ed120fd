package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"project_waBot/internal/entities"
)

const userDomain = "@s.whatsapp.net"

// document is the single persisted dataset. Every mutation rewrites the
// whole file, so all mutating paths must hold Store.mu.
type document struct {
	Users    map[string]*entities.User  `json:"users"`
	Groups   map[string]*entities.Group `json:"groups"`
	Settings entities.Settings          `json:"settings"`
}

type Options struct {
	Path      string
	BackupDir string

	// Seed values for a freshly created database. An existing file
	// keeps whatever it already has.
	MaxLimit      int
	ResetInterval time.Duration

	Clock  Clock
	Logger *slog.Logger
}

type Store struct {
	path      string
	backupDir string
	clock     Clock
	log       *slog.Logger

	mu   sync.Mutex
	data *document
}

func NewStore(opts Options) (*Store, error) {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Store{
		path:      opts.Path,
		backupDir: opts.BackupDir,
		clock:     opts.Clock,
		log:       opts.Logger,
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	raw, err := os.ReadFile(opts.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.data = s.defaultDocument(opts)
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
		s.log.Info("database file created", "path", opts.Path)
	case err != nil:
		return nil, fmt.Errorf("read database: %w", err)
	default:
		var doc document
		// A file is accepted as long as it decodes and both top-level
		// maps are present; anything else is reinitialized rather than
		// refusing to start. A partial settings block is filled in
		// below, not rejected.
		if jsonErr := json.Unmarshal(raw, &doc); jsonErr != nil || doc.Users == nil || doc.Groups == nil {
			s.log.Error("database unreadable, reinitializing", "path", opts.Path, "error", jsonErr)
			s.data = s.defaultDocument(opts)
			if err := s.persistLocked(); err != nil {
				return nil, err
			}
		} else {
			s.normalizeSettings(&doc, opts)
			s.data = &doc
		}
	}
	return s, nil
}

// normalizeSettings seeds the gaps a legacy or hand-edited file may
// leave in the settings block, the same way a fresh document is seeded.
// Without this, a missing custom map panics on the first unknown-key
// write, and a missing max limit would mint users with zero quota.
func (s *Store) normalizeSettings(doc *document, opts Options) {
	defaults := s.defaultDocument(opts).Settings
	if doc.Settings.Custom == nil {
		doc.Settings.Custom = make(map[string]any)
	}
	if doc.Settings.MaxLimit <= 0 {
		doc.Settings.MaxLimit = defaults.MaxLimit
	}
	if doc.Settings.ResetLimitInterval <= 0 {
		doc.Settings.ResetLimitInterval = defaults.ResetLimitInterval
	}
	if doc.Settings.LastReset.IsZero() {
		doc.Settings.LastReset = defaults.LastReset
	}
}

func (s *Store) defaultDocument(opts Options) *document {
	maxLimit := opts.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 50
	}
	interval := opts.ResetInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &document{
		Users:  make(map[string]*entities.User),
		Groups: make(map[string]*entities.Group),
		Settings: entities.Settings{
			MaxLimit:           maxLimit,
			ResetLimitInterval: interval,
			LastReset:          s.clock.Now(),
			Custom:             make(map[string]any),
		},
	}
}

// persistLocked rewrites the whole document. Callers must hold s.mu
// (NewStore is exempt, nothing else can see the store yet).
func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal database: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write database: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}

// Normalize maps any client-session variant of a user JID onto one
// canonical record key: the device qualifier (":N") and whatever domain
// was attached are dropped and the canonical domain appended. Group
// JIDs pass through untouched.
func Normalize(id string) string {
	if strings.HasSuffix(id, "@g.us") {
		return id
	}
	bare := strings.SplitN(id, "@", 2)[0]
	if i := strings.IndexByte(bare, ':'); i >= 0 {
		bare = bare[:i]
	}
	return bare + userDomain
}

// GetUser returns the user record for id, creating it on first sight.
// The bool reports whether the record was created by this call. Every
// call touches LastInteraction and persists.
func (s *Store) GetUser(id, name string) (entities.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Normalize(id)
	user, ok := s.data.Users[key]
	created := false
	if !ok {
		user = &entities.User{
			ID:         key,
			Name:       name,
			Limit:      s.data.Settings.MaxLimit,
			CustomData: make(map[string]any),
		}
		if user.Name == "" {
			user.Name = strings.SplitN(key, "@", 2)[0]
		}
		s.data.Users[key] = user
		created = true
		s.log.Info("new user created", "user", key)
	} else if name != "" {
		user.Name = name
	}
	user.LastInteraction = s.clock.Now()
	if err := s.persistLocked(); err != nil {
		return entities.User{}, created, err
	}
	return *user, created, nil
}

// GetGroup is the group-side counterpart of GetUser. Groups carry no
// quota, so there is nothing to seed beyond the name.
func (s *Store) GetGroup(id, name string) (entities.Group, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.data.Groups[id]
	created := false
	if !ok {
		group = &entities.Group{
			ID:         id,
			Name:       name,
			CustomData: make(map[string]any),
		}
		if group.Name == "" {
			group.Name = id
		}
		s.data.Groups[id] = group
		created = true
		s.log.Info("new group created", "group", id)
	} else if name != "" {
		group.Name = name
	}
	if err := s.persistLocked(); err != nil {
		return entities.Group{}, created, err
	}
	return *group, created, nil
}

// UpdateUser applies fn to the (lazily created) record and persists.
func (s *Store) UpdateUser(id string, fn func(*entities.User)) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Normalize(id)
	user, ok := s.data.Users[key]
	if !ok {
		user = &entities.User{
			ID:              key,
			Name:            strings.SplitN(key, "@", 2)[0],
			Limit:           s.data.Settings.MaxLimit,
			LastInteraction: s.clock.Now(),
			CustomData:      make(map[string]any),
		}
		s.data.Users[key] = user
	}
	fn(user)
	if user.Limit < 0 {
		user.Limit = 0
	}
	if err := s.persistLocked(); err != nil {
		return entities.User{}, err
	}
	return *user, nil
}

func (s *Store) UpdateGroup(id string, fn func(*entities.Group)) (entities.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.data.Groups[id]
	if !ok {
		group = &entities.Group{
			ID:         id,
			Name:       id,
			CustomData: make(map[string]any),
		}
		s.data.Groups[id] = group
	}
	fn(group)
	if err := s.persistLocked(); err != nil {
		return entities.Group{}, err
	}
	return *group, nil
}

// DecrementLimit consumes quota. Premium users always pass without
// mutation. Returns false (and mutates nothing) when the remaining
// quota cannot cover amount.
func (s *Store) DecrementLimit(id string, amount int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Normalize(id)
	user, ok := s.data.Users[key]
	if !ok {
		return false, nil
	}
	if user.Premium {
		return true, nil
	}
	if user.Limit < amount {
		return false, nil
	}
	user.Limit -= amount
	if err := s.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// IncrementLimit grants quota unconditionally (manual refunds and
// owner grants; the dispatcher never calls this).
func (s *Store) IncrementLimit(id string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Normalize(id)
	user, ok := s.data.Users[key]
	if !ok {
		return fmt.Errorf("unknown user %s", key)
	}
	user.Limit += amount
	return s.persistLocked()
}

// GetSetting reads a well-known settings field by name, falling back to
// the custom map, then to def.
func (s *Store) GetSetting(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case "maintenance":
		return s.data.Settings.Maintenance
	case "maxLimit":
		return s.data.Settings.MaxLimit
	case "resetLimitInterval":
		return s.data.Settings.ResetLimitInterval
	case "lastReset":
		return s.data.Settings.LastReset
	}
	if v, ok := s.data.Settings.Custom[key]; ok {
		return v
	}
	return def
}

func (s *Store) SetSetting(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case "maintenance":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("setting %q wants bool, got %T", key, value)
		}
		s.data.Settings.Maintenance = b
	case "maxLimit":
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("setting %q: %w", key, err)
		}
		s.data.Settings.MaxLimit = n
	case "resetLimitInterval":
		d, err := toDuration(value)
		if err != nil {
			return fmt.Errorf("setting %q: %w", key, err)
		}
		s.data.Settings.ResetLimitInterval = d
	case "lastReset":
		t, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("setting %q wants time.Time, got %T", key, value)
		}
		s.data.Settings.LastReset = t
	default:
		s.data.Settings.Custom[key] = value
	}
	return s.persistLocked()
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func toDuration(v any) (time.Duration, error) {
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		return time.ParseDuration(d)
	case float64:
		return time.Duration(d), nil
	}
	return 0, fmt.Errorf("not a duration: %T", v)
}

// Settings returns a copy of the singleton record.
func (s *Store) Settings() entities.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Settings
}

func (s *Store) AllUsers() []entities.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]entities.User, 0, len(s.data.Users))
	for _, u := range s.data.Users {
		users = append(users, *u)
	}
	return users
}

func (s *Store) AllGroups() []entities.Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make([]entities.Group, 0, len(s.data.Groups))
	for _, g := range s.data.Groups {
		groups = append(groups, *g)
	}
	return groups
}

func (s *Store) DeleteUser(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Normalize(id)
	if _, ok := s.data.Users[key]; !ok {
		return false, nil
	}
	delete(s.data.Users, key)
	return true, s.persistLocked()
}

func (s *Store) DeleteGroup(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Groups[id]; !ok {
		return false, nil
	}
	delete(s.data.Groups, id)
	return true, s.persistLocked()
}

// Backup writes a timestamped snapshot next to the live database and
// returns its path. Live state is untouched.
func (s *Store) Backup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal backup: %w", err)
	}
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(s.clock.Now().UTC().Format(time.RFC3339))
	path := filepath.Join(s.backupDir, "backup-"+stamp+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	s.log.Info("database backup created", "path", path)
	return path, nil
}
