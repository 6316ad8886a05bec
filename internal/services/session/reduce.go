package session

// Outcome описывает, что должен сделать слой эффектов после перехода.
type Outcome struct {
	// Start — запустить вызов провайдера с этими параметрами.
	Start *Request
	// Cancel — отменить вызов провайдера, который ещё выполняется.
	Cancel bool
	// FollowUp — событие, которое нужно отправить в стор следом.
	FollowUp Event
}

// Reduce применяет событие к состоянию сессии.
// Ошибка означает, что событие отклонено и состояние не изменилось.
// Ответы провайдера для устаревших попыток молча игнорируются.
func Reduce(s State, ev Event) (State, Outcome, error) {
	switch e := ev.(type) {
	case SignUpRequested:
		if err := canBegin(s); err != nil {
			return s, Outcome{}, err
		}
		req, err := ValidateSignUp(e.DisplayName, e.Email, e.Password)
		if err != nil {
			return s, Outcome{}, err
		}
		return begin(s, req)

	case SignInRequested:
		if err := canBegin(s); err != nil {
			return s, Outcome{}, err
		}
		req, err := ValidateSignIn(e.Email, e.Password)
		if err != nil {
			return s, Outcome{}, err
		}
		return begin(s, req)

	case GoogleSignInRequested:
		if err := canBegin(s); err != nil {
			return s, Outcome{}, err
		}
		return begin(s, Request{Method: MethodGoogle})

	case AuthSucceeded:
		if !s.awaiting(e.Generation) {
			return s, Outcome{}, nil
		}
		return State{status: StatusAuthenticated, user: e.User, generation: s.generation}, Outcome{}, nil

	case AuthFailed:
		if !s.awaiting(e.Generation) {
			return s, Outcome{}, nil
		}
		next := State{status: StatusAuthFailed, failure: AsAuthError(e.Err), generation: s.generation}
		return next, Outcome{FollowUp: FailureAcknowledged{Generation: s.generation}}, nil

	case FailureAcknowledged:
		if s.status != StatusAuthFailed || s.generation != e.Generation {
			return s, Outcome{}, nil
		}
		return State{status: StatusSignedOut, generation: s.generation}, Outcome{}, nil

	case GuestRequested:
		switch s.status {
		case StatusAuthenticating:
			return s, Outcome{}, ErrAlreadyInProgress
		case StatusAuthenticated:
			return s, Outcome{}, ErrAlreadyAuthenticated
		}
		return State{status: StatusGuest, generation: s.generation}, Outcome{}, nil

	case SignOutRequested:
		out := Outcome{Cancel: s.status == StatusAuthenticating}
		return State{status: StatusSignedOut, generation: s.generation + 1}, out, nil
	}
	return s, Outcome{}, nil
}

func canBegin(s State) error {
	switch s.status {
	case StatusAuthenticating:
		return ErrAlreadyInProgress
	case StatusAuthenticated:
		return ErrAlreadyAuthenticated
	}
	return nil
}

func begin(s State, req Request) (State, Outcome, error) {
	req.Generation = s.generation + 1
	next := State{status: StatusAuthenticating, method: req.Method, generation: req.Generation}
	return next, Outcome{Start: &req}, nil
}

func (s State) awaiting(gen uint64) bool {
	return s.status == StatusAuthenticating && s.generation == gen
}
