package routes

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/kofalt/go-memoize"

	"github.com/rm-hull/api-pgd-client/pkg/pgd"
)

// Fetcher is the read side of the PGD client.
type Fetcher interface {
	FetchUser(ctx context.Context, email string) (*pgd.User, error)
	FetchParticipant(ctx context.Context, unitLotation int, siapeID, originUnit string, authorizerUnit int) (*pgd.Participant, error)
}

func FetchUser(client Fetcher, cache *memoize.Memoizer) func(c *gin.Context) {
	return func(c *gin.Context) {
		email := c.Param("email")
		result, err, cached := cache.Memoize("user:"+email, func() (interface{}, error) {
			return client.FetchUser(c.Request.Context(), email)
		})
		respond(c, result, err, cached)
	}
}

func FetchParticipant(client Fetcher, cache *memoize.Memoizer) func(c *gin.Context) {
	return func(c *gin.Context) {
		lotacao, err := strconv.Atoi(c.Param("lotacao"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lotacao must be a unit code"})
			return
		}
		siape := c.Param("siape")
		origin := c.Query("origem_unidade")
		authorizer := 0
		if s := c.Query("cod_unidade_autorizadora"); s != "" {
			if authorizer, err = strconv.Atoi(s); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "cod_unidade_autorizadora must be a unit code"})
				return
			}
		}

		key := fmt.Sprintf("participant:%s/%d/%d/%s", origin, authorizer, lotacao, siape)
		result, err, cached := cache.Memoize(key, func() (interface{}, error) {
			return client.FetchParticipant(c.Request.Context(), lotacao, siape, origin, authorizer)
		})
		respond(c, result, err, cached)
	}
}

func respond(c *gin.Context, result any, err error, cached bool) {
	if err != nil {
		status, message := httpError(err)
		if status >= http.StatusInternalServerError {
			log.Printf("error while calling the PGD API: %v", err)
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	if cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, result)
}

func httpError(err error) (int, string) {
	kind, ok := pgd.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, "An internal server error occurred"
	}

	switch kind {
	case pgd.KindHTTPStatus:
		var pgdErr *pgd.Error
		if errors.As(err, &pgdErr) && pgdErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound, "not found"
		}
		return http.StatusBadGateway, "the PGD API rejected the request"
	case pgd.KindTimeout:
		return http.StatusGatewayTimeout, err.Error()
	case pgd.KindEndpointMalformed, pgd.KindEndpointNotDefined:
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusBadGateway, err.Error()
	}
}
