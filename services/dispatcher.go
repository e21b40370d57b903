package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ecotrail/api-go/geo"
	"github.com/ecotrail/api-go/logging"
	"github.com/ecotrail/api-go/metrics"
	"github.com/ecotrail/api-go/types"
	"github.com/ecotrail/api-go/validation"
)

// Session is the identity a command runs under. Transports build one per
// call from whatever authenticated the connection or request.
type Session struct {
	UserID        uint
	Authenticated bool
}

func AnonymousSession() Session { return Session{} }

func UserSession(userID uint) Session {
	return Session{UserID: userID, Authenticated: true}
}

// Command is one of SearchNearby, FetchSiteDetails or CompleteAction.
type Command interface {
	CommandName() string
}

type SearchNearby struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Radius    *float64 `json:"radius" validate:"omitempty,gt=0"`
}

type FetchSiteDetails struct {
	SiteID uint `json:"site_id" validate:"required"`
}

type CompleteAction struct {
	ActionID uint `json:"action_id" validate:"required"`
}

func (SearchNearby) CommandName() string     { return "search_nearby" }
func (FetchSiteDetails) CommandName() string { return "fetch_site_details" }
func (CompleteAction) CommandName() string   { return "complete_action" }

// Result is one of ServicesListResult, SiteDetailsResult, ActionResult or
// ErrorResult.
type Result interface {
	ResultType() string
}

type ServicesListResult struct {
	Services []types.ServiceWithDistance
}

type SiteDetailsResult struct {
	Site types.SiteDetails
}

type ActionResult struct {
	Outcome Outcome
}

type ErrorResult struct {
	Kind    Kind
	Message string
}

func (ServicesListResult) ResultType() string { return "services_list" }
func (SiteDetailsResult) ResultType() string  { return "site_details" }
func (ActionResult) ResultType() string       { return "action_result" }
func (r ErrorResult) ResultType() string      { return string(r.Kind) }

// Dispatcher is the single entry point both transports call into.
type Dispatcher struct {
	catalog       *Catalog
	ledger        *Ledger
	defaultRadius float64
}

func NewDispatcher(catalog *Catalog, ledger *Ledger, defaultRadiusKm float64) *Dispatcher {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = types.DefaultSearchRadiusKm
	}
	return &Dispatcher{catalog: catalog, ledger: ledger, defaultRadius: defaultRadiusKm}
}

// Dispatch runs cmd and always returns a Result; failures, including
// panics, come back as ErrorResult.
func (d *Dispatcher) Dispatch(ctx context.Context, sess Session, cmd Command) (res Result) {
	start := time.Now()
	name := "unknown"

	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().
				Str("command", name).
				Interface("panic", r).
				Msg("command panicked")
			res = ErrorResult{Kind: KindInternal, Message: fmt.Sprintf("%s%v", types.MsgErrorPrefix, r)}
		}
		metrics.RecordCommand(name, res.ResultType(), time.Since(start))
	}()

	if cmd != nil {
		name = cmd.CommandName()
	}

	var err error
	switch c := cmd.(type) {
	case SearchNearby:
		res, err = d.searchNearby(ctx, c)
	case *SearchNearby:
		res, err = d.searchNearby(ctx, *c)
	case FetchSiteDetails:
		res, err = d.fetchSiteDetails(ctx, c)
	case *FetchSiteDetails:
		res, err = d.fetchSiteDetails(ctx, *c)
	case CompleteAction:
		res, err = d.completeAction(ctx, sess, c)
	case *CompleteAction:
		res, err = d.completeAction(ctx, sess, *c)
	default:
		err = ValidationError(types.MsgUnknownAction)
	}

	if err != nil {
		return toErrorResult(ctx, name, err)
	}
	return res
}

func toErrorResult(ctx context.Context, command string, err error) ErrorResult {
	kind := KindOf(err)
	if kind == KindInternal {
		logging.Ctx(ctx).Error().Err(err).Str("command", command).Msg("command failed")
		return ErrorResult{Kind: kind, Message: types.MsgErrorPrefix + MessageOf(err)}
	}
	return ErrorResult{Kind: kind, Message: MessageOf(err)}
}

func (d *Dispatcher) searchNearby(ctx context.Context, c SearchNearby) (Result, error) {
	if c.Latitude == nil || c.Longitude == nil {
		return nil, ValidationError(types.MsgCoordinatesMissing)
	}
	if verr := validation.ValidateStruct(&c); verr != nil {
		return nil, ValidationError(verr.Error())
	}

	radius := d.defaultRadius
	if c.Radius != nil {
		radius = *c.Radius
	}

	ref := geo.Coordinate{Latitude: *c.Latitude, Longitude: *c.Longitude}
	services, err := d.catalog.NearbyServices(ctx, ref, radius)
	if err != nil {
		return nil, err
	}
	return ServicesListResult{Services: services}, nil
}

func (d *Dispatcher) fetchSiteDetails(ctx context.Context, c FetchSiteDetails) (Result, error) {
	if c.SiteID == 0 {
		return nil, NotFoundError(types.MsgSiteNotFound)
	}
	site, err := d.catalog.SiteDetails(ctx, c.SiteID)
	if err != nil {
		return nil, err
	}
	return SiteDetailsResult{Site: site}, nil
}

func (d *Dispatcher) completeAction(ctx context.Context, sess Session, c CompleteAction) (Result, error) {
	if !sess.Authenticated {
		return nil, AuthError(types.MsgUnauthenticated)
	}
	if c.ActionID == 0 {
		return nil, NotFoundError(types.MsgActionNotFound)
	}
	outcome, err := d.ledger.CompleteAction(ctx, sess.UserID, c.ActionID)
	if err != nil {
		return nil, err
	}
	return ActionResult{Outcome: outcome}, nil
}
