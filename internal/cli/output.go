package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case AccountList:
		o.printAccountList(v)
	case Account:
		o.printAccount(v)
	case LoginResult:
		o.printLoginResult(v)
	case CleanupResult:
		o.printCleanupResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// AccountSummary response type (matches API)
type AccountSummary struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Level     int        `json:"level"`
	Flags     string     `json:"flags"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// AccountList response type
type AccountList struct {
	Accounts []AccountSummary `json:"accounts"`
}

// Account response type
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

// LoginResult response type
type LoginResult struct {
	Account        Account `json:"account"`
	FailedAttempts int     `json:"failed_attempts"`
}

// CleanupResult response type
type CleanupResult struct {
	Scanned int      `json:"scanned"`
	Deleted []string `json:"deleted"`
}

// HealthResult response type
type HealthResult struct {
	Status   string `json:"status"`
	Accounts int    `json:"accounts"`
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func (o *Output) printAccountList(l AccountList) {
	if len(l.Accounts) == 0 {
		fmt.Println("No accounts")
		return
	}
	fmt.Printf("%-6s %-20s %5s %-6s %s\n", "ID", "NAME", "LEVEL", "FLAGS", "LAST LOGIN")
	for _, a := range l.Accounts {
		fmt.Printf("%-6d %-20s %5d %-6s %s\n", a.ID, a.Name, a.Level, a.Flags, formatTime(a.LastLogin))
	}
}

func (o *Output) printAccount(a Account) {
	fmt.Printf("Account: %s (#%d)\n", a.Name, a.ID)
	fmt.Printf("Level: %d\n", a.Level)
	fmt.Printf("Flags: %s\n", a.Flags)
	if a.Email != "" {
		fmt.Printf("Email: %s\n", a.Email)
	}
	if a.Host != "" {
		fmt.Printf("Host: %s\n", a.Host)
	}
	fmt.Printf("Last Logon: %s\n", formatTime(a.LastLogon))
	fmt.Printf("Played: %s\n", time.Duration(a.PlayedSecs)*time.Second)
	if a.BadPasswords > 0 {
		fmt.Printf("Failed Logins: %d\n", a.BadPasswords)
	}
	if a.Protected {
		fmt.Println("Protected from cleanup")
	}
	if a.Deleted {
		fmt.Println("Flagged for deletion")
	}
	if a.Description != "" {
		fmt.Printf("Description:\n%s\n", a.Description)
	}
}

func (o *Output) printLoginResult(r LoginResult) {
	fmt.Printf("Login OK: %s\n", r.Account.Name)
	if r.FailedAttempts > 0 {
		fmt.Printf("%d login failure(s) since last successful login\n", r.FailedAttempts)
	}
}

func (o *Output) printCleanupResult(r CleanupResult) {
	fmt.Printf("Scanned: %d\n", r.Scanned)
	if len(r.Deleted) == 0 {
		fmt.Println("Deleted: none")
		return
	}
	fmt.Printf("Deleted: %s\n", strings.Join(r.Deleted, ", "))
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Accounts: %d\n", h.Accounts)
}
