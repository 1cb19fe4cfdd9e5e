package models

import "testing"

func TestAccount_IsLive(t *testing.T) {
	tests := []struct {
		name string
		acct Account
		want bool
	}{
		{"live", Account{TrailingDDMode: TrailingLive, Status: AccountActive}, true},
		{"frozen", Account{TrailingDDMode: TrailingFrozen, Status: AccountActive}, false},
		{"live but blown", Account{TrailingDDMode: TrailingLive, Status: AccountBlown}, false},
		{"live but passed", Account{TrailingDDMode: TrailingLive, Status: AccountPassed}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.acct.IsLive(); got != tt.want {
				t.Errorf("IsLive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccount_IsTradable(t *testing.T) {
	tests := []struct {
		status AccountStatus
		want   bool
	}{
		{AccountActive, true},
		{AccountPassed, true},
		{AccountBlown, false},
		{AccountSuspended, false},
		{AccountPaused, false},
	}

	for _, tt := range tests {
		acct := Account{Status: tt.status}
		if got := acct.IsTradable(); got != tt.want {
			t.Errorf("IsTradable(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
