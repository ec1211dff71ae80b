package chat

// Visibility tracks whether the chat popup is open and whether a reply is
// waiting to be seen.
type Visibility struct {
	open   bool
	unread bool
}

// Toggle flips the popup. Either direction dismisses the unread badge.
func (v *Visibility) Toggle() {
	v.open = !v.open
	v.unread = false
}

// MarkUnread raises the unread badge.
func (v *Visibility) MarkUnread() { v.unread = true }

func (v *Visibility) Open() bool   { return v.open }
func (v *Visibility) Unread() bool { return v.unread }
