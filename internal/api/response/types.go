package response

import (
	"time"

	"github.com/mcoot/mudaccounts/internal/model"
	"github.com/mcoot/mudaccounts/internal/services/accounts"
	"github.com/mcoot/mudaccounts/internal/services/cleanup"
)

// AccountSummary is an index entry in API responses
type AccountSummary struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Level     int        `json:"level"`
	Flags     string     `json:"flags"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// AccountSummaryFromEntry converts a model.IndexEntry
func AccountSummaryFromEntry(e model.IndexEntry) AccountSummary {
	return AccountSummary{
		ID:        e.ID,
		Name:      e.Name,
		Level:     e.Level,
		Flags:     e.Flags.String(),
		LastLogin: timeOrNil(e.LastLogin),
	}
}

// AccountList is the response for listing accounts
type AccountList struct {
	Accounts []AccountSummary `json:"accounts"`
}

// AccountListFromEntries converts index entries
func AccountListFromEntries(entries []model.IndexEntry) AccountList {
	list := AccountList{Accounts: make([]AccountSummary, 0, len(entries))}
	for _, e := range entries {
		list.Accounts = append(list.Accounts, AccountSummaryFromEntry(e))
	}
	return list
}

// Account is the detailed view of an account. The password hash is never
// included.
type Account struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email,omitempty"`
	Host         string            `json:"host,omitempty"`
	Level        int               `json:"level"`
	Flags        string            `json:"flags"`
	Deleted      bool              `json:"deleted"`
	Protected    bool              `json:"protected"`
	BadPasswords int               `json:"bad_passwords"`
	LastLogon    *time.Time        `json:"last_logon,omitempty"`
	PlayedSecs   int64             `json:"played_seconds"`
	Description  string            `json:"description,omitempty"`
	Vars         map[string]string `json:"vars,omitempty"`
}

// AccountFromRecord converts a model.AccountRecord
func AccountFromRecord(rec *model.AccountRecord) Account {
	a := Account{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		Host:         rec.Host,
		Level:        rec.Level,
		Flags:        rec.Flags.String(),
		Deleted:      rec.Flags.Has(model.AccountDeleted),
		Protected:    rec.IndexFlags().Has(model.IndexNoDelete),
		BadPasswords: rec.BadPasswords,
		LastLogon:    timeOrNil(rec.LastLogon),
		PlayedSecs:   int64(rec.Played / time.Second),
		Description:  rec.Description,
	}
	if len(rec.Vars) > 0 {
		a.Vars = make(map[string]string, len(rec.Vars))
		for _, v := range rec.Vars {
			a.Vars[v.Key] = v.Value
		}
	}
	return a
}

// LoginResponse is the response for a successful login
type LoginResponse struct {
	Account        Account `json:"account"`
	FailedAttempts int     `json:"failed_attempts"`
}

// LoginResponseFromResult converts an accounts.LoginResult
func LoginResponseFromResult(r *accounts.LoginResult) LoginResponse {
	return LoginResponse{
		Account:        AccountFromRecord(r.Account),
		FailedAttempts: r.FailedAttempts,
	}
}

// CleanupResult is the response for a manual sweep
type CleanupResult struct {
	Scanned int      `json:"scanned"`
	Deleted []string `json:"deleted"`
}

// CleanupResultFromModel converts a cleanup.Result
func CleanupResultFromModel(r *cleanup.Result) CleanupResult {
	deleted := r.Deleted
	if deleted == nil {
		deleted = []string{}
	}
	return CleanupResult{
		Scanned: r.Scanned,
		Deleted: deleted,
	}
}

// Health is the response for the health check
type Health struct {
	Status   string `json:"status"`
	Accounts int    `json:"accounts"`
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
