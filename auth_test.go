package main

import "testing"

func TestAuthenticate(t *testing.T) {
	auth := newAuthenticator(defaultUsers())

	tests := []struct {
		name     string
		username string
		password string
		success  bool
	}{
		{"valid admin", "admin", "admin123", true},
		{"valid superadmin", "superadmin", "super123", true},
		{"wrong password", "admin", "nope", false},
		{"unknown user", "driver", "admin123", false},
		{"empty credentials", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := auth.authenticate(tt.username, tt.password)
			if resp.Success != tt.success {
				t.Fatalf("success = %v, want %v", resp.Success, tt.success)
			}
			if tt.success {
				if resp.User == nil || resp.User.Username != tt.username {
					t.Fatalf("user = %+v", resp.User)
				}
			} else {
				if resp.User != nil || resp.Message == "" {
					t.Fatalf("failure response = %+v", resp)
				}
			}
		})
	}
}
