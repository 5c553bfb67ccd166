package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/liveslides/pkg/schema"
)

var slideIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidationError lists every structural problem found in a presentation.
type ValidationError struct {
	Problems []*schema.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s: %s", ErrInvalidPresentation, e.Problems[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d problems:\n", ErrInvalidPresentation, len(e.Problems))
	for i, p := range e.Problems {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
	}
	return b.String()
}

// Unwrap lets callers match ErrInvalidPresentation with errors.Is.
func (e *ValidationError) Unwrap() error { return ErrInvalidPresentation }

// Warning is a non-fatal authoring issue.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string { return w.Path + ": " + w.Message }

// Validate checks the structural invariants of a presentation: a title, at
// least one slide, unique well-formed slide ids, a title and persisted kind
// per slide, and labelled options where the kind needs them.
func Validate(p *Presentation) error {
	if p == nil {
		return &ValidationError{Problems: []*schema.FieldError{{Field: "presentation", Reason: "required"}}}
	}

	var problems []*schema.FieldError
	add := func(field, reason string, value any) {
		problems = append(problems, &schema.FieldError{Field: field, Reason: reason, Value: value})
	}

	if strings.TrimSpace(p.Title) == "" {
		add("title", "required", nil)
	}
	if len(p.Slides) == 0 {
		add("slides", "at least one slide is required", nil)
	}

	seen := make(map[string]int, len(p.Slides))
	for i, s := range p.Slides {
		path := fmt.Sprintf("slides[%d]", i)

		switch {
		case strings.TrimSpace(s.ID) == "":
			add(path+".id", "required", nil)
		case !slideIDPattern.MatchString(s.ID):
			add(path+".id", "may only contain letters, numbers, hyphens and underscores", s.ID)
		default:
			if first, dup := seen[s.ID]; dup {
				add(path+".id", fmt.Sprintf("duplicate of slides[%d]", first), s.ID)
			} else {
				seen[s.ID] = i
			}
		}

		if strings.TrimSpace(s.Title) == "" {
			add(path+".title", "required", nil)
		}
		if s.Kind == "" {
			add(path+".kind", "required", nil)
		} else if !s.Kind.IsPersisted() {
			add(path+".kind", "unknown slide kind", string(s.Kind))
		}

		if (s.Kind == KindQuestion || s.Kind == KindDemoCta) && len(s.Options) == 0 {
			add(path+".options", "at least one option is required", nil)
		}
		for j, o := range s.Options {
			if strings.TrimSpace(o.OptionLabel) == "" {
				add(fmt.Sprintf("%s.options[%d].optionLabel", path, j), "required", nil)
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Lint reports authoring issues that do not make a presentation invalid:
// Slide actions targeting unknown ids, undecodable actions and option lists
// longer than MaxRenderedOptions.
func Lint(p *Presentation) []Warning {
	if p == nil {
		return nil
	}
	var warnings []Warning

	check := func(path string, actions Actions) {
		slideTargets := 0
		for k, a := range actions {
			apath := fmt.Sprintf("%s.afterSubmitActions[%d]", path, k)
			switch v := a.(type) {
			case SlideAction:
				slideTargets++
				if _, ok := p.Slide(v.SlideID); !ok {
					warnings = append(warnings, Warning{Path: apath, Message: fmt.Sprintf("slide %q does not exist", v.SlideID)})
				}
			case InvalidAction:
				warnings = append(warnings, Warning{Path: apath, Message: fmt.Sprintf("invalid action: %v", v.Err)})
			}
		}
		if slideTargets > 1 {
			warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf("%d Slide actions; only the last one takes effect", slideTargets)})
		}
	}

	for i, s := range p.Slides {
		path := fmt.Sprintf("slides[%d]", i)
		if len(s.Options) > MaxRenderedOptions {
			warnings = append(warnings, Warning{Path: path + ".options", Message: fmt.Sprintf("%d options; more than %d may not render well", len(s.Options), MaxRenderedOptions)})
		}
		for j, o := range s.Options {
			check(fmt.Sprintf("%s.options[%d]", path, j), o.AfterSubmitActions)
		}
		check(path, s.AfterSubmitActions)
	}
	return warnings
}
