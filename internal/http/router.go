package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/arquivamais/processos/internal/config"
	httpmiddleware "github.com/arquivamais/processos/internal/http/middleware"
	"github.com/arquivamais/processos/internal/lookup"
	"github.com/arquivamais/processos/internal/metrics"
	"github.com/arquivamais/processos/internal/notificacao"
	"github.com/arquivamais/processos/internal/orgao"
	"github.com/arquivamais/processos/internal/processo"
	"github.com/arquivamais/processos/internal/service"
)

// AuthAPI cobre login e ciclo de sessão.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, rawToken string) (*service.LoginResult, error)
	Logout(ctx context.Context, userID int64, rawToken string) error
	LoadPrincipal(ctx context.Context, userID int64) (*service.Principal, error)
}

// UsuarioAPI cobre a gestão de usuários.
type UsuarioAPI interface {
	List(ctx context.Context, orgaoID *int64, apenasAtivos bool) ([]service.UsuarioView, error)
	Get(ctx context.Context, id int64) (service.UsuarioView, error)
	Register(ctx context.Context, input service.RegisterInput) (service.UsuarioView, error)
	Update(ctx context.Context, id int64, input service.UpdateUsuarioInput) (service.UsuarioView, error)
	ResetPassword(ctx context.Context, id int64, novaSenha string) error
	ChangeOwnPassword(ctx context.Context, id int64, atual, nova string) error
	Deactivate(ctx context.Context, actorID, id int64) error
}

// ProcessoAPI cobre ciclo de vida e consulta de processos.
type ProcessoAPI interface {
	Create(ctx context.Context, actor processo.Actor, in processo.CreateInput) (*processo.Processo, error)
	Update(ctx context.Context, actor processo.Actor, id int64, in processo.UpdateInput) (*processo.Processo, error)
	TransferSector(ctx context.Context, actor processo.Actor, id int64, in processo.TransferInput) (*processo.Processo, error)
	SoftDelete(ctx context.Context, actor processo.Actor, id int64) error
	SetPriority(ctx context.Context, actor processo.Actor, id int64, flag bool) (*processo.Processo, error)
	Assign(ctx context.Context, actor processo.Actor, id, usuarioID int64) (*processo.Processo, error)
	AssignableUsers(ctx context.Context, actor processo.Actor) ([]processo.Assignee, error)
	Get(ctx context.Context, actor processo.Actor, id int64) (*processo.Processo, error)
	List(ctx context.Context, actor processo.Actor, params processo.ListParams) (*processo.Page, error)
	ListAll(ctx context.Context, actor processo.Actor) ([]processo.Processo, error)
	Location() *time.Location
	Now() time.Time
}

// LookupAPI cobre os cadastros auxiliares.
type LookupAPI interface {
	List(ctx context.Context, kind lookup.Kind, search string) ([]lookup.Entry, error)
	Get(ctx context.Context, kind lookup.Kind, id int64) (*lookup.Entry, error)
	Create(ctx context.Context, kind lookup.Kind, rawName string) (*lookup.Entry, bool, error)
	Update(ctx context.Context, kind lookup.Kind, id int64, rawName string) (*lookup.Entry, error)
	Usage(ctx context.Context, kind lookup.Kind, id int64) (int64, error)
	Delete(ctx context.Context, kind lookup.Kind, id int64) error
}

// NotificacaoAPI cobre a caixa de notificações do usuário.
type NotificacaoAPI interface {
	List(ctx context.Context, usuarioID int64) ([]notificacao.Notificacao, error)
	CountUnread(ctx context.Context, usuarioID int64) (int64, error)
	MarkRead(ctx context.Context, id, usuarioID int64) (*notificacao.Notificacao, error)
	MarkAllRead(ctx context.Context, usuarioID int64) (int64, error)
}

// OrgaoAPI cobre o cadastro de órgãos.
type OrgaoAPI interface {
	Get(ctx context.Context, id int64) (*orgao.Orgao, error)
	List(ctx context.Context, filter orgao.ListFilter) ([]orgao.Orgao, error)
	Create(ctx context.Context, input orgao.CreateInput) (*orgao.Orgao, error)
	Update(ctx context.Context, id int64, input orgao.UpdateInput) (*orgao.Orgao, error)
	Deactivate(ctx context.Context, id int64) (*orgao.Orgao, error)
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type loginRecorder interface {
	LoginFalhou()
}

// Deps reúne os serviços expostos pela API.
type Deps struct {
	Tokens       httpmiddleware.TokenParser
	Auth         AuthAPI
	Usuarios     UsuarioAPI
	Processos    ProcessoAPI
	Lookups      LookupAPI
	Notificacoes NotificacaoAPI
	Orgaos       OrgaoAPI
	DB           dbPinger
	Redis        redisPinger
	Metrics      *metrics.Metrics
}

// Handler agrupa os endpoints HTTP.
type Handler struct {
	auth          AuthAPI
	usuarios      UsuarioAPI
	processos     ProcessoAPI
	lookups       LookupAPI
	notificacoes  NotificacaoAPI
	orgaos        OrgaoAPI
	db            dbPinger
	redis         redisPinger
	logins        loginRecorder
	refreshTTL    time.Duration
	secureCookies bool
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	secureCookies := true
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			secureCookies = false
			break
		}
	}

	h := &Handler{
		auth:          deps.Auth,
		usuarios:      deps.Usuarios,
		processos:     deps.Processos,
		lookups:       deps.Lookups,
		notificacoes:  deps.Notificacoes,
		orgaos:        deps.Orgaos,
		db:            deps.DB,
		redis:         deps.Redis,
		refreshTTL:    cfg.JWTRefreshTTL,
		secureCookies: secureCookies,
	}

	publicLimiter := httpmiddleware.NewRateLimiter("ip", cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst)
	authLimiter := httpmiddleware.NewRateLimiter("usuario", cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst)
	loginLimiter := httpmiddleware.NewRateLimiter("login", cfg.RateLimitLogin.RequestsPerSecond, cfg.RateLimitLogin.Burst)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	if deps.Metrics != nil {
		h.logins = deps.Metrics
		publicLimiter.WithRecorder(deps.Metrics)
		authLimiter.WithRecorder(deps.Metrics)
		loginLimiter.WithRecorder(deps.Metrics)
		r.Use(httpmiddleware.Metrics(deps.Metrics))
	}
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	if deps.Metrics != nil && cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(publicLimiter))

		public.With(httpmiddleware.IPRateLimit(loginLimiter)).Post("/auth/login", h.Login)
		public.Post("/auth/refresh", h.Refresh)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(deps.Tokens, deps.Auth))
		private.Use(httpmiddleware.UserRateLimit(authLimiter))
		private.Use(httpmiddleware.RequireRole(service.RoleTramitador))

		private.Route("/auth", func(a chi.Router) {
			a.Post("/logout", h.Logout)
			a.Get("/perfil", h.Perfil)
			a.Get("/verify", h.Verify)
			a.Patch("/senha", h.ChangeOwnPassword)

			a.With(httpmiddleware.RequireRole(service.RoleModerador)).Get("/usuarios", h.ListUsuarios)
			a.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireRole(service.RoleAdmin))
				admin.Post("/registrar", h.RegisterUsuario)
				admin.Put("/usuarios/{id}", h.UpdateUsuario)
				admin.Patch("/usuarios/{id}/senha", h.ResetPassword)
				admin.Delete("/usuarios/{id}", h.DeactivateUsuario)
			})
		})

		private.Route("/processos", func(p chi.Router) {
			p.Get("/", h.ListProcessos)
			p.Get("/listar-todos", h.ListAllProcessos)
			p.Get("/{id}", h.GetProcesso)
			p.Patch("/{id}/setor", h.TransferSector)

			p.Group(func(editor chi.Router) {
				editor.Use(httpmiddleware.RequireRole(service.RoleEditor))
				editor.Post("/", h.CreateProcesso)
				editor.Put("/{id}", h.UpdateProcesso)
			})
			p.Group(func(mod chi.Router) {
				mod.Use(httpmiddleware.RequireRole(service.RoleModerador))
				mod.Get("/usuarios-atribuicao", h.AssignableUsers)
				mod.Patch("/{id}/atribuir", h.AssignProcesso)
				mod.Delete("/{id}", h.DeleteProcesso)
			})
			p.With(httpmiddleware.RequireRole(service.RoleGestor)).Patch("/{id}/prioridade", h.SetPriority)
		})

		for _, kind := range lookup.Kinds() {
			private.Route("/"+kind.Path(), func(l chi.Router) {
				l.Get("/", h.ListLookups(kind))
				l.Get("/{id}", h.GetLookup(kind))
				l.Get("/{id}/uso", h.LookupUsage(kind))
				l.With(httpmiddleware.RequireRole(service.RoleEditor)).Post("/", h.CreateLookup(kind))
				l.With(httpmiddleware.RequireRole(service.RoleEditor)).Put("/{id}", h.UpdateLookup(kind))
				l.With(httpmiddleware.RequireRole(service.RoleModerador)).Delete("/{id}", h.DeleteLookup(kind))
			})
		}

		private.Route("/notificacoes", func(n chi.Router) {
			n.Get("/", h.ListNotificacoes)
			n.Patch("/ler-todas", h.MarkAllNotificacoesRead)
			n.Patch("/{id}/ler", h.MarkNotificacaoRead)
		})

		private.Route("/orgaos", func(o chi.Router) {
			o.Get("/", h.ListOrgaos)
			o.Get("/{id}", h.GetOrgao)
			o.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireRole(service.RoleAdmin))
				admin.Post("/", h.CreateOrgao)
				admin.Put("/{id}", h.UpdateOrgao)
				admin.Delete("/{id}", h.DeactivateOrgao)
			})
		})
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var dbErr, redisErr error
	if h.db != nil {
		dbErr = h.db.Ping(ctx)
	}
	if h.redis != nil {
		redisErr = h.redis.Ping(ctx).Err()
	}

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
