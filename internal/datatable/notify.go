package datatable

// Level is the kind of a user-facing notification
type Level string

const (
	LevelLoading Level = "loading"
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is one transient message shown to the user
type Notification struct {
	Level       Level  `json:"level"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

// Notifier shows transient notifications. Loading returns a function that
// dismisses the loading notification.
type Notifier interface {
	Loading(message string) (dismiss func())
	Success(message, description string)
	Info(message string)
	Error(message, description string)
}

type nopNotifier struct{}

func (nopNotifier) Loading(string) func()  { return func() {} }
func (nopNotifier) Success(string, string) {}
func (nopNotifier) Info(string)            {}
func (nopNotifier) Error(string, string)   {}

// Recorder is a Notifier that keeps every notification in order. A loading
// notification is removed from Active when it is dismissed.
type Recorder struct {
	Notifications []Notification
	active        map[int]bool
}

func (r *Recorder) Loading(message string) func() {
	r.add(Notification{Level: LevelLoading, Message: message})
	i := len(r.Notifications) - 1
	if r.active == nil {
		r.active = make(map[int]bool)
	}
	r.active[i] = true
	return func() { delete(r.active, i) }
}

func (r *Recorder) Success(message, description string) {
	r.add(Notification{Level: LevelSuccess, Message: message, Description: description})
}

func (r *Recorder) Info(message string) {
	r.add(Notification{Level: LevelInfo, Message: message})
}

func (r *Recorder) Error(message, description string) {
	r.add(Notification{Level: LevelError, Message: message, Description: description})
}

func (r *Recorder) add(n Notification) {
	r.Notifications = append(r.Notifications, n)
}

// Active returns the loading notifications that have not been dismissed
func (r *Recorder) Active() []Notification {
	var out []Notification
	for i, n := range r.Notifications {
		if r.active[i] {
			out = append(out, n)
		}
	}
	return out
}

// Last returns the most recent notification
func (r *Recorder) Last() (Notification, bool) {
	if len(r.Notifications) == 0 {
		return Notification{}, false
	}
	return r.Notifications[len(r.Notifications)-1], true
}
