package dig_container

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/schoolhub/apps/api/echo"
	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/importing"
)

func TestNew_memoryEngine(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("DOTENV_PATH", "does-not-exist.env")
	t.Setenv("TEST_DATABASE_ENGINE", core.EngineMemory)

	c := New()
	err := c.Invoke(func(conf *core.Config, store core.DocumentStore, svc *importing.Service, server *echoapi.Server) {
		assert.True(t, conf.TestMode)
		assert.Equal(t, core.EngineMemory, conf.Database.Engine)
		assert.ElementsMatch(t, []string{"students", "teachers", "fees", "attendance"}, svc.Kinds())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	require.NoError(t, err)
}
