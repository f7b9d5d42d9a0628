package model

import (
	"strings"
	"time"
)

// Privilege tiers. Retention rules compare against these.
const (
	LevelMortal   = 1
	LevelImmortal = 31
	LevelGod      = 32
	LevelGreatGod = 33
	LevelAdmin    = 34
)

// IndexEntry is the cached summary of one account kept in the account index
type IndexEntry struct {
	ID        int64
	Name      string // lower-cased; empty marks a tombstone
	Level     int
	Flags     IndexFlags
	LastLogin time.Time
}

// Tombstoned reports whether the entry has been cleared by a delete
func (e IndexEntry) Tombstoned() bool {
	return e.Name == ""
}

// Var is a single free-form persisted variable
type Var struct {
	Key   string
	Value string
}

// AccountRecord holds the full persisted detail of an account
type AccountRecord struct {
	Name         string
	PasswordHash string // bcrypt hash
	Email        string
	Host         string
	Description  string

	ID           int64
	Level        int
	Flags        AccountFlags
	BadPasswords int
	LastLogon    time.Time
	Played       time.Duration
	PageLength   int
	ScreenWidth  int

	Vars []Var
}

// IndexFlags derives the index flag bits cached for this record
func (r *AccountRecord) IndexFlags() IndexFlags {
	var f IndexFlags
	if r.Flags.Has(AccountDeleted) {
		f |= IndexDeleted
	}
	if r.Flags.Has(AccountNoDelete) || r.Flags.Has(AccountCryo) {
		f |= IndexNoDelete
	}
	if r.Flags.Has(AccountFrozen) || r.Flags.Has(AccountNoWizlist) {
		f |= IndexNoWizlist
	}
	return f
}

// Var returns the value of a persisted variable
func (r *AccountRecord) Var(key string) (string, bool) {
	for _, v := range r.Vars {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// SetVar sets a persisted variable, replacing any existing value
func (r *AccountRecord) SetVar(key, value string) {
	for i := range r.Vars {
		if r.Vars[i].Key == key {
			r.Vars[i].Value = value
			return
		}
	}
	r.Vars = append(r.Vars, Var{Key: key, Value: value})
}

// NormalizeName returns the canonical (lower-cased) form of an account name
func NormalizeName(name string) string {
	return strings.ToLower(name)
}

// RetentionRule deletes accounts at or below Level idle for longer than Days
type RetentionRule struct {
	Level int `yaml:"level"`
	Days  int `yaml:"days"`
}

// IdleLimit returns the rule's idle allowance as a duration
func (r RetentionRule) IdleLimit() time.Duration {
	return time.Duration(r.Days) * 24 * time.Hour
}

// DefaultRetentionRules mirrors the stock cleanup table, consulted in order
func DefaultRetentionRules() []RetentionRule {
	return []RetentionRule{
		{Level: 0, Days: 0},
		{Level: 1, Days: 4},
		{Level: 4, Days: 7},
		{Level: 10, Days: 30},
		{Level: LevelImmortal - 1, Days: 60},
		{Level: LevelAdmin, Days: 90},
	}
}
