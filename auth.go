package main

// authenticator checks credentials against the fixed user list from the
// configuration. The core treats the authenticated identity opaquely; the
// role travels to the client but is never consulted server-side.
type authenticator struct {
	users []userConfig
}

func newAuthenticator(users []userConfig) *authenticator {
	return &authenticator{users: users}
}

func (a *authenticator) authenticate(username, password string) loginResponse {
	for _, u := range a.users {
		if u.Username == username && u.Password == password {
			return loginResponse{
				Success: true,
				User:    &wireUser{ID: u.ID, Username: u.Username, Role: u.Role},
			}
		}
	}
	return loginResponse{Success: false, Message: "Invalid username or password"}
}
