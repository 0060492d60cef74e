package global

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"
)

const accountsTOMLFileName = "accounts.toml"

var ErrAccountNotFound = errors.New("account not found")

type Account struct {
	Name  string `json:"name" toml:"name"`
	Token string `json:"-" toml:"token"`
}

type AccountsFile struct {
	Default  string    `json:"default" toml:"default"`
	Accounts []Account `json:"accounts" toml:"accounts"`
}

// Find returns the named account, or the default one when name is empty.
func (f AccountsFile) Find(name string) (Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = f.Default
	}
	for _, a := range f.Accounts {
		if a.Name == name {
			return a, nil
		}
	}
	if name == "" {
		return Account{}, fmt.Errorf("%w: no default account", ErrAccountNotFound)
	}
	return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
}

// ResolveToken picks the API token: an explicit token wins, then the named
// account, then the default account.
func ResolveToken(explicit, account string, f AccountsFile) (string, error) {
	if token := strings.TrimSpace(explicit); token != "" {
		return token, nil
	}
	a, err := f.Find(account)
	if err != nil {
		return "", err
	}
	return a.Token, nil
}

type AccountStore struct {
	dir string
	mu  sync.Mutex
}

func NewAccountStore(dir string) *AccountStore {
	return &AccountStore{dir: dir}
}

func (s *AccountStore) Path() string {
	return filepath.Join(s.dir, accountsTOMLFileName)
}

// Load reads the accounts file. A missing file is an empty set.
func (s *AccountStore) Load() (AccountsFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *AccountStore) loadLocked() (AccountsFile, error) {
	b, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return AccountsFile{}, nil
		}
		return AccountsFile{}, err
	}
	var f AccountsFile
	if err := toml.Unmarshal(b, &f); err != nil {
		return AccountsFile{}, fmt.Errorf("parse %s: %w", accountsTOMLFileName, err)
	}
	return normalizeAccounts(f), nil
}

// Add creates or replaces an account. The first account becomes the default.
func (s *AccountStore) Add(name, token string) error {
	name = strings.TrimSpace(name)
	token = strings.TrimSpace(token)
	if name == "" {
		return errors.New("account name is required")
	}
	if token == "" {
		return errors.New("account token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.loadLocked()
	if err != nil {
		return err
	}
	replaced := false
	for i := range f.Accounts {
		if f.Accounts[i].Name == name {
			f.Accounts[i].Token = token
			replaced = true
		}
	}
	if !replaced {
		f.Accounts = append(f.Accounts, Account{Name: name, Token: token})
	}
	return s.saveLocked(f)
}

// Use makes name the default account.
func (s *AccountStore) Use(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.loadLocked()
	if err != nil {
		return err
	}
	a, err := f.Find(name)
	if err != nil {
		return err
	}
	f.Default = a.Name
	return s.saveLocked(f)
}

func (s *AccountStore) Remove(name string) error {
	name = strings.TrimSpace(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.loadLocked()
	if err != nil {
		return err
	}
	kept := f.Accounts[:0]
	for _, a := range f.Accounts {
		if a.Name != name {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(f.Accounts) {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	f.Accounts = kept
	if f.Default == name {
		f.Default = ""
	}
	return s.saveLocked(f)
}

func (s *AccountStore) saveLocked(f AccountsFile) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	return writeTOMLAtomically(s.Path(), normalizeAccounts(f), 0o600)
}

// Watch calls onChange with the reloaded file every time it is rewritten, until ctx is done.
func (s *AccountStore) Watch(ctx context.Context, onChange func(AccountsFile, error)) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()
	// The directory is watched because saves replace the file by rename.
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != accountsTOMLFileName {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				onChange(s.Load())
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onChange(AccountsFile{}, werr)
		}
	}
}

func normalizeAccounts(f AccountsFile) AccountsFile {
	out := AccountsFile{Default: strings.TrimSpace(f.Default)}
	seen := map[string]bool{}
	for _, a := range f.Accounts {
		a.Name = strings.TrimSpace(a.Name)
		a.Token = strings.TrimSpace(a.Token)
		if a.Name == "" || seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		out.Accounts = append(out.Accounts, a)
	}
	if out.Default == "" || !seen[out.Default] {
		out.Default = ""
		if len(out.Accounts) > 0 {
			out.Default = out.Accounts[0].Name
		}
	}
	return out
}

func writeTOMLAtomically(path string, v any, perm os.FileMode) error {
	b, err := toml.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
