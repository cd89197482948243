package compiler

import (
	_ "embed"
	"fmt"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/kitty/internal/circle"
	"github.com/roach88/kitty/internal/model"
)

//go:embed schema.cue
var schemaSource string

const schemaFile = "kitty/schema.cue"

// Definition is one compiled circle and where it was declared.
type Definition struct {
	Config circle.Config
	Pos    token.Pos
}

// Bind unifies v with the circle schema and checks that every circle is
// concrete and well-typed. It reports the first violation.
func Bind(v cue.Value) (cue.Value, error) {
	bound, errs := bind(v)
	if len(errs) > 0 {
		return cue.Value{}, errs[0]
	}
	return bound, nil
}

func bind(v cue.Value) (cue.Value, []error) {
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEErrors(err)
	}
	schema := v.Context().CompileString(schemaSource, cue.Filename(schemaFile))
	if err := schema.Err(); err != nil {
		return cue.Value{}, []error{fmt.Errorf("compile circle schema: %w", err)}
	}
	bound := v.Unify(schema)
	if err := bound.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, formatCUEErrors(err)
	}
	return bound, nil
}

// CompileAll binds v and compiles every circle under its top-level circle:
// struct, in declaration order. Errors are collected, not fail-fast.
func CompileAll(v cue.Value) ([]Definition, []error) {
	bound, errs := bind(v)
	if len(errs) > 0 {
		return nil, errs
	}

	circles := bound.LookupPath(cue.ParsePath("circle"))
	if !circles.Exists() {
		return nil, []error{&CompileError{Field: "circle", Message: "no circles defined", Pos: v.Pos()}}
	}
	iter, err := circles.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var defs []Definition
	for iter.Next() {
		cfg, err := CompileCircle(iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		// Positions come from the user's value; the bound one may point into the schema.
		defs = append(defs, Definition{Config: cfg, Pos: v.LookupPath(iter.Value().Path()).Pos()})
	}
	return defs, errs
}

// CompileSource compiles and validates CUE source text. It returns the
// first problem found.
func CompileSource(filename string, src []byte) ([]Definition, error) {
	v := cuecontext.New().CompileBytes(src, cue.Filename(filename))
	defs, errs := CompileAll(v)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if verrs := Validate(defs); len(verrs) > 0 {
		return nil, verrs[0]
	}
	return defs, nil
}

// CompileCircle parses one circle struct into a circle.Config. The circle
// ID is the struct's label:
//
//	circle: "rent-club": {
//		name:         "Rent Club"
//		type:         "rosca"
//		members:      ["ana", "ben", "cy"]
//		contribution: 10000
//		cycles:       3
//	}
//
// CompileCircle checks structure only; Validate applies the circle rules.
func CompileCircle(v cue.Value) (circle.Config, error) {
	if err := v.Err(); err != nil {
		return circle.Config{}, formatCUEError(err)
	}

	var cfg circle.Config
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		cfg.ID = labels[len(labels)-1].Unquoted()
	}

	var err error
	if cfg.Name, err = requiredString(v, "name"); err != nil {
		return circle.Config{}, err
	}
	if cfg.Description, err = optionalString(v, "description"); err != nil {
		return circle.Config{}, err
	}
	typ, err := requiredString(v, "type")
	if err != nil {
		return circle.Config{}, err
	}
	if cfg.Type, err = model.ParseCircleType(typ); err != nil {
		return circle.Config{}, fieldError(v, "type", err.Error())
	}
	if cfg.Admin, err = optionalString(v, "admin"); err != nil {
		return circle.Config{}, err
	}

	amount, err := requiredInt(v, "contribution")
	if err != nil {
		return circle.Config{}, err
	}
	cfg.ContributionAmount = model.Money(amount)

	freq, err := optionalString(v, "frequency")
	if err != nil {
		return circle.Config{}, err
	}
	if freq == "" {
		freq = string(model.Monthly)
	}
	if cfg.Frequency, err = model.ParseFrequency(freq); err != nil {
		return circle.Config{}, fieldError(v, "frequency", err.Error())
	}

	cycles, err := requiredInt(v, "cycles")
	if err != nil {
		return circle.Config{}, err
	}
	cfg.TotalCycles = int(cycles)

	if cfg.Members, err = parseMembers(v); err != nil {
		return circle.Config{}, err
	}
	if err := parseMatchingFund(v, &cfg); err != nil {
		return circle.Config{}, err
	}
	if cfg.Settings, err = parseSettings(v); err != nil {
		return circle.Config{}, err
	}
	return cfg, nil
}

// parseMembers accepts bare member IDs or {id, position, joined_at} structs.
func parseMembers(v cue.Value) ([]circle.MemberSpec, error) {
	list := v.LookupPath(cue.ParsePath("members"))
	if !list.Exists() {
		return nil, fieldError(v, "members", "members are required")
	}
	iter, err := list.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var members []circle.MemberSpec
	for iter.Next() {
		el := iter.Value()
		if el.IncompleteKind() == cue.StringKind {
			id, err := el.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			members = append(members, circle.MemberSpec{ID: id})
			continue
		}

		var m circle.MemberSpec
		if m.ID, err = requiredString(el, "id"); err != nil {
			return nil, err
		}
		pos, err := optionalInt(el, "position")
		if err != nil {
			return nil, err
		}
		m.Position = int(pos)
		if m.JoinedAt, err = optionalDate(el, "joined_at"); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func parseMatchingFund(v cue.Value, cfg *circle.Config) error {
	mf := v.LookupPath(cue.ParsePath("matching_fund"))
	if !mf.Exists() {
		return nil
	}
	cfg.MatchingFundEligible = true
	if f := mf.LookupPath(cue.ParsePath("eligible")); f.Exists() {
		b, err := f.Bool()
		if err != nil {
			return formatCUEError(err)
		}
		cfg.MatchingFundEligible = b
	}
	amount, err := optionalInt(mf, "amount")
	if err != nil {
		return err
	}
	cfg.MatchingFundAmount = model.Money(amount)
	return nil
}

// parseSettings reads the single variant block, if any.
func parseSettings(v cue.Value) (circle.Settings, error) {
	var (
		settings circle.Settings
		found    []string
	)
	for _, block := range []string{"auction", "challenge", "fund", "goal"} {
		b := v.LookupPath(cue.ParsePath(block))
		if !b.Exists() {
			continue
		}
		found = append(found, block)

		var err error
		switch block {
		case "auction":
			settings, err = parseAuction(b)
		case "challenge":
			settings, err = parseChallenge(b)
		case "fund":
			settings, err = parseFund(b)
		case "goal":
			settings, err = parseGoal(b)
		}
		if err != nil {
			return nil, err
		}
	}
	if len(found) > 1 {
		return nil, fieldError(v, found[1], fmt.Sprintf("only one settings block allowed, found %v", found))
	}
	return settings, nil
}

func parseAuction(v cue.Value) (circle.Settings, error) {
	pot, err := optionalInt(v, "pot_value")
	if err != nil {
		return nil, err
	}
	s := circle.AuctionSettings{
		PotValue:            model.Money(pot),
		MinBidDiscount:      circle.DefaultMinBidDiscount,
		OrganizerCommission: circle.DefaultOrganizerCommission,
	}
	if f := v.LookupPath(cue.ParsePath("min_bid_discount")); f.Exists() {
		p, err := requiredInt(v, "min_bid_discount")
		if err != nil {
			return nil, err
		}
		s.MinBidDiscount = model.Pct(p)
	}
	if f := v.LookupPath(cue.ParsePath("organizer_commission")); f.Exists() {
		p, err := requiredInt(v, "organizer_commission")
		if err != nil {
			return nil, err
		}
		s.OrganizerCommission = model.Pct(p)
	}
	return s, nil
}

func parseChallenge(v cue.Value) (circle.Settings, error) {
	goal, err := requiredInt(v, "savings_goal_per_member")
	if err != nil {
		return nil, err
	}
	end, err := optionalDate(v, "end_date")
	if err != nil {
		return nil, err
	}
	if end.IsZero() {
		return nil, fieldError(v, "end_date", "end_date is required")
	}
	return circle.ChallengeSettings{SavingsGoalPerMember: model.Money(goal), EndDate: end}, nil
}

func parseFund(v cue.Value) (circle.Settings, error) {
	target, err := requiredInt(v, "target_fund_size")
	if err != nil {
		return nil, err
	}
	maxW, err := requiredInt(v, "max_withdrawal")
	if err != nil {
		return nil, err
	}
	method, err := optionalString(v, "approval_method")
	if err != nil {
		return nil, err
	}
	if method == "" {
		method = string(model.MajorityVote)
	}
	m, err := model.ParseApprovalMethod(method)
	if err != nil {
		return nil, fieldError(v, "approval_method", err.Error())
	}
	return circle.FundSettings{
		TargetFundSize: model.Money(target),
		MaxWithdrawal:  model.Money(maxW),
		ApprovalMethod: m,
	}, nil
}

func parseGoal(v cue.Value) (circle.Settings, error) {
	desc, err := optionalString(v, "description")
	if err != nil {
		return nil, err
	}
	target, err := requiredInt(v, "target_amount")
	if err != nil {
		return nil, err
	}
	date, err := optionalDate(v, "target_date")
	if err != nil {
		return nil, err
	}
	return circle.GoalSettings{Description: desc, TargetAmount: model.Money(target), TargetDate: date}, nil
}

func fieldError(v cue.Value, field, msg string) *CompileError {
	pos := v.Pos()
	if f := v.LookupPath(cue.ParsePath(field)); f.Exists() {
		pos = f.Pos()
	}
	return &CompileError{Field: field, Message: msg, Pos: pos}
}

func requiredString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", fieldError(v, field, field+" is required")
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	if !v.LookupPath(cue.ParsePath(field)).Exists() {
		return "", nil
	}
	return requiredString(v, field)
}

// requiredInt reads an integer field. Floats are rejected: amounts are
// minor units and percentages are whole numbers.
func requiredInt(v cue.Value, field string) (int64, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return 0, fieldError(v, field, field+" is required")
	}
	if k := f.IncompleteKind(); k == cue.FloatKind || k == cue.NumberKind {
		return 0, fieldError(v, field, "float values are forbidden, use integer minor units")
	}
	n, err := f.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

func optionalInt(v cue.Value, field string) (int64, error) {
	if !v.LookupPath(cue.ParsePath(field)).Exists() {
		return 0, nil
	}
	return requiredInt(v, field)
}

// optionalDate reads a YYYY-MM-DD or RFC 3339 timestamp as UTC.
func optionalDate(v cue.Value, field string) (time.Time, error) {
	s, err := optionalString(v, field)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fieldError(v, field, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s))
}
