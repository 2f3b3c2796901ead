package pgd

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/rm-hull/api-pgd-client/pkg/endpoints"
	"github.com/rm-hull/api-pgd-client/pkg/headers"
	"github.com/rm-hull/api-pgd-client/pkg/transport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary


// Client talks to the PGD API. It fetches a bearer token on first use, keeps
// it, and refreshes it once per call when the server rejects it.
//
// A Client is safe for concurrent use.
type Client struct {
	cfg        Config
	registry   *endpoints.Registry
	httpClient *http.Client
	exec       *transport.Executor
	logger     Logger
	observer   Observer
	lenient    bool

	mu    sync.Mutex
	token Token
}

// New validates cfg and builds a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		registry: endpoints.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		return nil, &Error{Kind: KindConfig, Message: "endpoint registry must not be nil"}
	}
	if c.httpClient == nil {
		c.httpClient = transport.NewHTTPClient(cfg.RequestTimeout)
	}

	execOpts := []transport.Option{}
	if c.logger != nil {
		execOpts = append(execOpts, transport.WithLogger(c.logger))
	}
	if c.observer != nil {
		execOpts = append(execOpts, transport.WithObserver(c.observer))
	}
	c.exec = transport.New(c.httpClient, errorFunc(cfg.InvalidTokenMarker), execOpts...)

	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// GetToken requests a new token from the API. It never uses the cache.
func (c *Client) GetToken(ctx context.Context) (Token, error) {
	url, err := c.endpoint(endpoints.Token, http.MethodPost, nil)
	if err != nil {
		return Token{}, err
	}

	h, err := headers.Assemble([]headers.Item{headers.ContentTypeForm}, nil)
	if err != nil {
		return Token{}, resolverError(err)
	}

	credentials := map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	}
	body, err := c.exec.Post(ctx, url, credentials, h, false)
	if err != nil {
		return Token{}, err
	}

	var token Token
	if err := c.decode(body, &token, false); err != nil {
		return Token{}, err
	}
	return token, nil
}

// Token returns the cached token, fetching it on first use. A cached token is
// never checked for expiry; an expired one is replaced when a call fails
// with an invalid-token error.
func (c *Client) Token(ctx context.Context) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.token.IsZero() {
		return c.token, nil
	}

	token, err := c.GetToken(ctx)
	c.observeTokenFetch(false, err)
	if err != nil {
		return Token{}, err
	}
	c.token = token
	return token, nil
}

// refreshToken replaces stale with a new token. When another caller already
// replaced it, the newer cached token is returned instead.
func (c *Client) refreshToken(ctx context.Context, stale Token) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.token.IsZero() && c.token != stale {
		return c.token, nil
	}

	token, err := c.GetToken(ctx)
	c.observeTokenFetch(true, err)
	if err != nil {
		return Token{}, err
	}
	c.token = token
	c.logf("token refreshed")
	return token, nil
}

// FetchUser reads the user registered under email.
func (c *Client) FetchUser(ctx context.Context, email string) (*User, error) {
	body, err := c.call(ctx, endpoints.User, http.MethodGet, map[string]string{"email": email}, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord[User](c, body)
}

// FetchUsers lists the users visible to the authenticated account.
func (c *Client) FetchUsers(ctx context.Context) ([]User, error) {
	body, err := c.call(ctx, endpoints.Users, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var users []User
	if err := c.decode(body, &users, !c.lenient); err != nil {
		return nil, err
	}
	return users, nil
}

// UpsertUser creates or replaces user and returns the server's response.
func (c *Client) UpsertUser(ctx context.Context, user *User) (any, error) {
	return c.call(ctx, endpoints.User, http.MethodPut, map[string]string{"email": user.Email}, user)
}

// FetchParticipant reads a participant. Empty originUnit or zero
// authorizerUnit fall back to the configured defaults.
func (c *Client) FetchParticipant(ctx context.Context, unitLotation int, siapeID, originUnit string, authorizerUnit int) (*Participant, error) {
	params := c.participantParams(unitLotation, siapeID, originUnit, authorizerUnit)
	body, err := c.call(ctx, endpoints.Participant, http.MethodGet, params, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord[Participant](c, body)
}

// UpsertParticipant creates or replaces p under its lotação unit and SIAPE id.
func (c *Client) UpsertParticipant(ctx context.Context, p *Participant) (any, error) {
	params := c.participantParams(p.CodUnidadeLotacao, p.MatriculaSIAPE, p.OrigemUnidade, p.CodUnidadeAutorizadora)
	return c.call(ctx, endpoints.Participant, http.MethodPut, params, p)
}

// FetchDeliveryPlan reads the delivery plan planID.
func (c *Client) FetchDeliveryPlan(ctx context.Context, planID, originUnit string, authorizerUnit int) (*DeliveryPlan, error) {
	params := c.unitParams(originUnit, authorizerUnit)
	params["id_plano_entregas"] = planID
	body, err := c.call(ctx, endpoints.DeliveryPlan, http.MethodGet, params, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord[DeliveryPlan](c, body)
}

// UpsertDeliveryPlan creates or replaces plan. Nil lists are sent as [].
func (c *Client) UpsertDeliveryPlan(ctx context.Context, plan *DeliveryPlan) (any, error) {
	params := c.unitParams(plan.OrigemUnidade, plan.CodUnidadeAutorizadora)
	params["id_plano_entregas"] = plan.IDPlanoEntregas
	return c.call(ctx, endpoints.DeliveryPlan, http.MethodPut, params, plan.withDefaults())
}

// FetchWorkPlan reads the work plan planID.
func (c *Client) FetchWorkPlan(ctx context.Context, planID, originUnit string, authorizerUnit int) (*WorkPlan, error) {
	params := c.unitParams(originUnit, authorizerUnit)
	params["id_plano_trabalho"] = planID
	body, err := c.call(ctx, endpoints.WorkPlan, http.MethodGet, params, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord[WorkPlan](c, body)
}

// UpsertWorkPlan creates or replaces plan. Nil lists are sent as [].
func (c *Client) UpsertWorkPlan(ctx context.Context, plan *WorkPlan) (any, error) {
	params := c.unitParams(plan.OrigemUnidade, plan.CodUnidadeAutorizadora)
	params["id_plano_trabalho"] = plan.IDPlanoTrabalho
	return c.call(ctx, endpoints.WorkPlan, http.MethodPut, params, plan.withDefaults())
}

// call resolves the endpoint and runs one authenticated request, retried once
// after a token refresh if the server rejects the token. Resolution errors are
// never retried.
func (c *Client) call(ctx context.Context, name, method string, params map[string]string, body any) (any, error) {
	url, err := c.endpoint(name, method, params)
	if err != nil {
		return nil, err
	}

	var used Token
	attempt := func(ctx context.Context) (any, error) {
		token, err := c.Token(ctx)
		if err != nil {
			return nil, err
		}
		used = token

		h, err := c.defaultHeaders(token)
		if err != nil {
			return nil, err
		}

		switch method {
		case http.MethodGet:
			return c.exec.Get(ctx, url, nil, h)
		case http.MethodPut:
			return c.exec.Put(ctx, url, body, h)
		case http.MethodPost:
			return c.exec.Post(ctx, url, body, h, true)
		// Only reachable through a custom registry allowing DELETE.
		case http.MethodDelete:
			return c.exec.Delete(ctx, url, h)
		default:
			return nil, &Error{Kind: KindMethodNotAllowed, Message: "unsupported method " + method}
		}
	}
	refresh := func(ctx context.Context) error {
		c.logf("%s %s: token rejected, refreshing and retrying once", method, name)
		if c.observer != nil {
			c.observer.ObserveRetry(name)
		}
		_, err := c.refreshToken(ctx, used)
		return err
	}

	return RetryOnInvalidToken(ctx, attempt, refresh)
}

func (c *Client) endpoint(name, method string, params map[string]string) (string, error) {
	d, err := c.registry.Lookup(name)
	if err != nil {
		return "", resolverError(err)
	}
	if !d.Allows(method) {
		return "", &Error{
			Kind:    KindMethodNotAllowed,
			Message: fmt.Sprintf("Method %s not allowed for endpoint %s", method, name),
		}
	}

	url, err := c.registry.Resolve(c.cfg.BaseURL, name, params)
	if err != nil {
		return "", resolverError(err)
	}
	return url, nil
}

func (c *Client) defaultHeaders(token Token) (map[string]string, error) {
	h, err := headers.Assemble(
		[]headers.Item{headers.ContentTypeJSON, headers.Authorization, headers.UserAgent},
		map[string]string{
			"token_type":     token.TokenType,
			"access_token":   token.AccessToken,
			"system_name":    c.cfg.SystemName,
			"system_version": c.cfg.SystemVersion,
			"system_url":     c.cfg.SystemAboutURL,
		},
	)
	if err != nil {
		return nil, resolverError(err)
	}
	return h, nil
}

// unitParams applies the configured defaults. A unit that is still unset is
// left out so that resolving the endpoint fails instead of producing a bogus
// path.
func (c *Client) unitParams(originUnit string, authorizerUnit int) map[string]string {
	if originUnit == "" {
		originUnit = c.cfg.OriginUnit
	}
	if authorizerUnit == 0 {
		authorizerUnit = c.cfg.AuthorizerUnit
	}

	params := make(map[string]string, 4)
	if originUnit != "" {
		params["origem_unidade"] = originUnit
	}
	if authorizerUnit != 0 {
		params["cod_unidade_autorizadora"] = strconv.Itoa(authorizerUnit)
	}
	return params
}

func (c *Client) participantParams(unitLotation int, siapeID, originUnit string, authorizerUnit int) map[string]string {
	params := c.unitParams(originUnit, authorizerUnit)
	params["cod_unidade_lotacao"] = strconv.Itoa(unitLotation)
	params["matricula_siape"] = siapeID
	return params
}

func decodeRecord[T any](c *Client, body any) (*T, error) {
	var record T
	if err := c.decode(body, &record, !c.lenient); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) decode(body any, target any, strict bool) error {
	if body == nil {
		return &Error{Kind: KindDecode, Message: fmt.Sprintf("empty response, expected %T", target)}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return &Error{Kind: KindDecode, Message: fmt.Sprintf("cannot re-encode response: %v", err), cause: err}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return &Error{Kind: KindDecode, Message: fmt.Sprintf("unexpected response for %T: %v", target, err), cause: err}
	}
	if strict {
		if field := unknownField(raw, reflect.TypeOf(target).Elem()); field != "" {
			return &Error{Kind: KindDecode, Message: fmt.Sprintf("unexpected response for %T: unknown field %q", target, field)}
		}
	}
	return nil
}

// unknownField returns the first key of a record in raw that t has no field
// for. Only the record's own keys are checked; nested lists accept anything.
func unknownField(raw []byte, t reflect.Type) string {
	switch t.Kind() {
	case reflect.Slice:
		var items []jsoniter.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return ""
		}
		for _, item := range items {
			if field := unknownField(item, t.Elem()); field != "" {
				return field
			}
		}
	case reflect.Struct:
		var record map[string]jsoniter.RawMessage
		if err := json.Unmarshal(raw, &record); err != nil {
			return ""
		}
		known := jsonFields(t)
		keys := make([]string, 0, len(record))
		for key := range record {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !known[key] {
				return key
			}
		}
	}
	return ""
}

func jsonFields(t reflect.Type) map[string]bool {
	known := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			known[name] = true
		}
	}
	return known
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

func (c *Client) observeTokenFetch(forced bool, err error) {
	if c.observer != nil {
		c.observer.ObserveTokenFetch(forced, err)
	}
}
