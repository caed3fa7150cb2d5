package auth

// OTPLength is the number of digits in every emailed code.
const OTPLength = 6

// OTPInput models the six single-digit boxes of the code entry form.
type OTPInput struct {
	boxes [OTPLength]string
	focus int
}

// Type records value in box index and advances focus when a digit lands.
// Only the last character of value is kept.
func (o *OTPInput) Type(index int, value string) {
	if index < 0 || index >= OTPLength {
		return
	}
	if value == "" {
		o.boxes[index] = ""
		o.focus = index
		return
	}
	last := value[len(value)-1:]
	if !isDigit(last[0]) {
		return
	}
	o.boxes[index] = last
	o.focus = index
	if index < OTPLength-1 {
		o.focus = index + 1
	}
}

// Backspace clears box index and moves focus one box back.
func (o *OTPInput) Backspace(index int) {
	if index < 0 || index >= OTPLength {
		return
	}
	o.boxes[index] = ""
	o.focus = index
	if index > 0 {
		o.focus = index - 1
	}
}

// Paste fills the boxes left to right from the first six characters of text
// and clears any box past the pasted run.
func (o *OTPInput) Paste(text string) {
	if len(text) > OTPLength {
		text = text[:OTPLength]
	}
	for i := range o.boxes {
		if i < len(text) {
			o.boxes[i] = text[i : i+1]
		} else {
			o.boxes[i] = ""
		}
	}
	o.focus = 0
	if len(text) > 0 {
		o.focus = len(text) - 1
	}
}

// Code concatenates the boxes.
func (o *OTPInput) Code() string {
	var b []byte
	for _, s := range o.boxes {
		b = append(b, s...)
	}
	return string(b)
}

// Focus is the index of the box that has focus.
func (o *OTPInput) Focus() int { return o.focus }

// Boxes returns a copy of the box contents.
func (o *OTPInput) Boxes() []string {
	out := make([]string, OTPLength)
	copy(out, o.boxes[:])
	return out
}

// Complete reports whether every box holds one digit.
func (o *OTPInput) Complete() bool {
	return validOTP(o.Code())
}

// OTPFromForm rebuilds the input from the submitted box values. A box that
// carries more than one character was pasted into and fills from there.
func OTPFromForm(values []string) OTPInput {
	var in OTPInput
	for i, v := range values {
		if i >= OTPLength {
			break
		}
		if len(v) > 1 {
			in.Paste(v)
			return in
		}
		in.Type(i, v)
	}
	return in
}

func validOTP(code string) bool {
	if len(code) != OTPLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !isDigit(code[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
