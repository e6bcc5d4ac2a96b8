// Package lang holds the supported display languages and each transport
// user's choice. The choice is recorded only; it does not change any
// business rule.
package lang

import (
	"errors"
	"strings"
	"sync"
)

var ErrUnknownLanguage = errors.New("unknown language")

// Default is used for users who never chose a language.
const Default = "en"

// Language is a selectable display language.
type Language struct {
	Code string
	Name string
}

var supported = []Language{
	{Code: "en", Name: "English 🇺🇸"},
	{Code: "am", Name: "አማርኛ 🇪🇹"},
	{Code: "or", Name: "Oromiffa 🇪🇹"},
}

// Supported returns the languages in menu order.
func Supported() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// Lookup finds a language by code, case-insensitively.
func Lookup(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range supported {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// Preferences maps transport user ids to language codes. It outlives
// session restarts and is dropped when the session expires.
type Preferences struct {
	mu    sync.RWMutex
	codes map[string]string
}

func NewPreferences() *Preferences {
	return &Preferences{codes: make(map[string]string)}
}

// Set records the user's language.
func (p *Preferences) Set(user, code string) (Language, error) {
	l, ok := Lookup(code)
	if !ok {
		return Language{}, ErrUnknownLanguage
	}
	p.mu.Lock()
	p.codes[user] = l.Code
	p.mu.Unlock()
	return l, nil
}

// Forget drops the preferences of users whose sessions expired.
func (p *Preferences) Forget(users ...string) {
	if len(users) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range users {
		delete(p.codes, u)
	}
}

// Len returns the number of stored preferences.
func (p *Preferences) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.codes)
}

// Get returns the user's language, or Default.
func (p *Preferences) Get(user string) Language {
	p.mu.RLock()
	code, ok := p.codes[user]
	p.mu.RUnlock()
	if !ok {
		code = Default
	}
	l, _ := Lookup(code)
	return l
}
