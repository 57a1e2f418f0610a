// Package validation checks flat string maps against Laravel-style rule
// strings. The manifest loader and the configuration use it before
// anything reaches the container.
//
//	v := validation.Make(map[string]string{
//	    "class":     "github.com/acme/app.Mailer",
//	    "lifecycle": "transient",
//	}, validation.Rules{
//	    "class":     "required|max:255",
//	    "lifecycle": "sometimes|in:shared,transient",
//	})
//	if err := v.Validate(); err != nil { ... }
//
// Built-in rules: required, sometimes, nullable, numeric, integer, boolean,
// min:n, max:n, in:a,b, not_in:a,b, alpha_dash, regex:pattern. Extend adds
// rules to a single validator.
package validation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ── Error bag ────────────────────────────────────────────────────────────────

// Errors holds validation errors, mirroring Laravel's MessageBag.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the fields with errors, sorted.
func (e *Errors) Fields() []string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Error joins every message, ordered by field.
func (e *Errors) Error() string {
	var msgs []string
	for _, f := range e.Fields() {
		msgs = append(msgs, e.Bag[f]...)
	}
	return strings.Join(msgs, " ")
}

// ── Rules ────────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
// e.g. Rules{"name": "required|alpha_dash", "lifecycle": "in:shared,transient"}
type Rules map[string]string

// Check reports whether value passes a rule. param is the text after the
// colon ("3" in "min:3"); data is the whole input.
type Check func(value, param string, data map[string]string) bool

// rule pairs a check with its message. The message may use the :attribute
// and :param placeholders.
type rule struct {
	check   Check
	message string
}

var builtin = map[string]rule{
	"numeric": {func(v, _ string, _ map[string]string) bool {
		_, err := strconv.ParseFloat(v, 64)
		return err == nil
	}, "The :attribute must be a number."},

	"integer": {func(v, _ string, _ map[string]string) bool {
		_, err := strconv.Atoi(v)
		return err == nil
	}, "The :attribute must be an integer."},

	"boolean": {func(v, _ string, _ map[string]string) bool {
		switch strings.ToLower(v) {
		case "true", "false", "1", "0", "yes", "no":
			return true
		}
		return false
	}, "The :attribute field must be true or false."},

	"min": {func(v, p string, _ map[string]string) bool {
		n, _ := strconv.Atoi(p)
		return utf8.RuneCountInString(v) >= n
	}, "The :attribute must be at least :param characters."},

	"max": {func(v, p string, _ map[string]string) bool {
		n, _ := strconv.Atoi(p)
		return utf8.RuneCountInString(v) <= n
	}, "The :attribute may not be greater than :param characters."},

	"in": {func(v, p string, _ map[string]string) bool {
		return listed(v, p)
	}, "The selected :attribute is invalid."},

	"not_in": {func(v, p string, _ map[string]string) bool {
		return !listed(v, p)
	}, "The selected :attribute is invalid."},

	"alpha_dash": {func(v, _ string, _ map[string]string) bool {
		return alphaDash.MatchString(v)
	}, "The :attribute may only contain letters, numbers, dashes and underscores."},

	"regex": {func(v, p string, _ map[string]string) bool {
		re, err := regexp.Compile(p)
		return err == nil && re.MatchString(v)
	}, "The :attribute format is invalid."},
}

var alphaDash = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func listed(value, list string) bool {
	for _, item := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

// ── Validator ────────────────────────────────────────────────────────────────

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	extra  map[string]rule
	errors *Errors
	ran    bool
}

// Make creates a new Validator, mirroring Validator::make($data, $rules).
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		data:   data,
		rules:  rules,
		errors: &Errors{},
	}
}

// Extend adds a rule usable by this validator, mirroring
// Validator::extend(). It may replace a built-in rule.
//
//	v.Extend("lifecycle", func(v, _ string, _ map[string]string) bool {
//	    _, err := container.ParseLifecycle(v)
//	    return err == nil
//	}, "The :attribute is not a known lifecycle.")
func (v *Validator) Extend(name string, check Check, message string) *Validator {
	if v.extra == nil {
		v.extra = make(map[string]rule)
	}
	v.extra[name] = rule{check: check, message: message}
	return v
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	v.validate()
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Validate runs validation and returns the error bag when anything failed.
func (v *Validator) Validate() error {
	if v.Fails() {
		return v.errors
	}
	return nil
}

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

func (v *Validator) validate() {
	if v.ran {
		return
	}
	v.ran = true

	for field, list := range v.rules {
		value, present := v.data[field]
		for _, r := range strings.Split(list, "|") {
			name, param, _ := strings.Cut(strings.TrimSpace(r), ":")
			if name == "" {
				continue
			}
			// bail on the first failure of a field
			if !v.apply(field, value, present, name, param) {
				break
			}
		}
	}
}

// apply reports whether later rules of field should run.
func (v *Validator) apply(field, value string, present bool, name, param string) bool {
	switch name {
	case "required":
		if strings.TrimSpace(value) == "" {
			v.fail(field, param, "The :attribute field is required.")
			return false
		}
		return true
	case "sometimes":
		return present
	case "nullable":
		return value != ""
	case "string":
		return true
	}

	r, ok := v.extra[name]
	if !ok {
		if r, ok = builtin[name]; !ok {
			v.fail(field, name, "The :attribute uses the undefined rule [:param].")
			return false
		}
	}
	if !r.check(value, param, v.data) {
		v.fail(field, param, r.message)
		return false
	}
	return true
}

func (v *Validator) fail(field, param, message string) {
	v.errors.add(field, strings.NewReplacer(":attribute", field, ":param", param).Replace(message))
}
