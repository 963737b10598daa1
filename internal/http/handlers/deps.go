package handlers

import (
	"ticketlogger/internal/config"
	"ticketlogger/internal/i18n"
	"ticketlogger/internal/metrics"
	"ticketlogger/internal/repos"
	"ticketlogger/internal/services"

	fsession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

type Deps struct {
	Web *Web

	Auth  *services.AuthService
	OAuth *services.OAuthService

	HomeHandler        *HomeHandler
	RegionHandler      *RegionHandler
	ProvinceHandler    *ProvinceHandler
	SupermarketHandler *SupermarketHandler
	LocationHandler    *LocationHandler
	CategoryHandler    *CategoryHandler
	ProductHandler     *ProductHandler
	TicketHandler      *TicketHandler
	AuthHandler        *AuthHandler
	OAuthHandler       *OAuthHandler
	AdminHandler       *AdminHandler
	UploadsHandler     *UploadsHandler
}

// NewDeps wires repositories, services and handlers. sqlx serves the master data
// tables; gorm (sharing the same connection) serves products, tickets and users.
func NewDeps(db *sqlx.DB, gdb *gorm.DB, cfg config.Config, sessions *fsession.Store, bundle *i18n.I18n, m *metrics.Metrics) *Deps {
	web := &Web{Sessions: sessions, I18n: bundle}

	geoSvc := services.NewGeoService(repos.NewRegionRepo(db), repos.NewProvinceRepo(db))
	storeSvc := services.NewStoreService(repos.NewSupermarketRepo(db), repos.NewLocationRepo(db))
	catalogSvc := services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewProductRepo(gdb), services.NewFileStorage(cfg.UploadPath))
	ticketSvc := services.NewTicketService(repos.NewTicketRepo(gdb))
	authSvc := services.NewAuthService(repos.NewUserRepo(gdb))
	oauthSvc := services.NewOAuthService(cfg, authSvc)

	return &Deps{
		Web:   web,
		Auth:  authSvc,
		OAuth: oauthSvc,

		HomeHandler:        &HomeHandler{Web: web},
		RegionHandler:      &RegionHandler{Web: web, Geo: geoSvc},
		ProvinceHandler:    &ProvinceHandler{Web: web, Geo: geoSvc},
		SupermarketHandler: &SupermarketHandler{Web: web, Stores: storeSvc},
		LocationHandler:    &LocationHandler{Web: web, Stores: storeSvc, Geo: geoSvc},
		CategoryHandler:    &CategoryHandler{Web: web, Catalog: catalogSvc},
		ProductHandler:     &ProductHandler{Web: web, Catalog: catalogSvc},
		TicketHandler:      &TicketHandler{Web: web, Tickets: ticketSvc, Stores: storeSvc, Catalog: catalogSvc},
		AuthHandler:        &AuthHandler{Web: web, Auth: authSvc, OAuth: oauthSvc, Metrics: m},
		OAuthHandler:       &OAuthHandler{Web: web, OAuth: oauthSvc, Metrics: m},
		AdminHandler:       &AdminHandler{Web: web, Auth: authSvc},
		UploadsHandler:     &UploadsHandler{Dir: cfg.UploadPath},
	}
}
