package store

import "github.com/sitecrew/sitecrew/internal/model"

func reduceAuth(s State, o Outcome) State {
	a := s.Auth
	if o.Op == OpAuthClearError {
		a.Error = ""
		s.Auth = a
		return s
	}
	lifecycle(o, &a.IsLoading, &a.Error)

	switch o.Op {
	case OpInitializeAuth:
		if o.Phase == PhasePending {
			break
		}
		// Initialization completes exactly once, whatever the result.
		a.IsInitialized = true
		if o.Rejected() {
			a = clearSession(a)
			break
		}
		if p, ok := payload[AuthPayload](o); ok && p.User != nil {
			a = withSession(a, p)
		} else {
			a = clearSession(a)
		}
	case OpSignInWithEmail, OpSignUpWithEmail, OpSignInWithGoogle, OpSignInWithApple:
		// A failed attempt only records its error; a live session survives it.
		if o.Fulfilled() {
			if p, ok := payload[AuthPayload](o); ok && p.User != nil {
				a = withSession(a, p)
			}
		}
	case OpSignOutUser:
		if o.Fulfilled() {
			a = clearSession(a)
		}
	case OpUpdateProfile:
		if o.Fulfilled() {
			if u, ok := payload[model.User](o); ok && a.IsAuthenticated && a.User != nil && a.User.ID == u.ID {
				a.User = &u
			}
		}
	}
	s.Auth = a
	return s
}

func withSession(a AuthState, p AuthPayload) AuthState {
	a.User = p.User
	a.Session = p.Session
	a.IsAuthenticated = true
	return a
}

func clearSession(a AuthState) AuthState {
	a.User = nil
	a.Session = nil
	a.IsAuthenticated = false
	return a
}

func reduceTheme(s State, o Outcome) State {
	switch o.Op {
	case OpToggleTheme:
		if s.Theme.Mode == ThemeDark {
			s.Theme.Mode = ThemeLight
		} else {
			s.Theme.Mode = ThemeDark
		}
	case OpSetTheme:
		if mode, ok := payload[ThemeMode](o); ok && (mode == ThemeDark || mode == ThemeLight) {
			s.Theme.Mode = mode
		}
	}
	return s
}
