package service

import (
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/config"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/shared/directory"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/shared/gs1"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher pushes change notifications to connected clients
type Publisher interface {
	PublishProductUpdate(productID, action string)
	PublishActivityUpdate(productID, activityID, action string)
	PublishUserActivityUpdate(userID, productID, activityID, action string)
}

type nopPublisher struct{}

func (nopPublisher) PublishProductUpdate(string, string) {}
func (nopPublisher) PublishActivityUpdate(string, string, string) {}
func (nopPublisher) PublishUserActivityUpdate(string, string, string, string) {}

// Services groups every use case
type Services struct {
	Auth     *AuthService
	User     *UserService
	Product  *ProductService
	Activity *ActivityService
	Template *TemplateService
	GS1      *GS1Service
	Export   *ExportService
}

// NewServices wires the services. catalog supplies templates when the database has none.
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, hub Publisher, catalog *schedule.Catalog, logger *zap.Logger) *Services {
	// GS1 is optional
	var gs1Client *gs1.Client
	if cfg.GS1.Enabled {
		gs1Cfg := gs1.Config{
			BaseURL:         cfg.GS1.BaseURL,
			ClientID:        cfg.GS1.ClientID,
			ClientSecret:    cfg.GS1.ClientSecret,
			SubscriptionKey: cfg.GS1.SubscriptionKey,
			Username:        cfg.GS1.Username,
			Password:        cfg.GS1.Password,
			GLN:             cfg.GS1.GLN,
			Timeout:         cfg.GS1.Timeout,
		}
		if gs1Cfg.Complete() {
			gs1Client = gs1.NewClient(gs1Cfg)
		} else {
			logger.Warn("GS1 enabled but credentials are incomplete, integration disabled")
		}
	}

	// MinIO is optional, exports are then only streamed
	var archiver Archiver
	if cfg.MinIO.Enabled() {
		minioClient, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO client init failed, export archiving disabled", zap.Error(err))
		} else {
			archiver = NewMinioArchiver(minioClient, cfg.MinIO.Bucket, cfg.MinIO.URLExpiry)
		}
	}

	var source TradeItemSource
	if gs1Client != nil {
		source = gs1Client
	}

	auth := NewAuthService(repos, NewRedisTokenStore(rdb), cfg.JWT, logger)
	for _, d := range directories(cfg.Auth, logger) {
		auth.RegisterDirectory(d)
	}

	userSvc := NewUserService(repos, logger)
	return &Services{
		Auth:     auth,
		User:     userSvc,
		Product:  NewProductService(repos, userSvc, catalog, hub, logger),
		Activity: NewActivityService(repos, hub, logger),
		Template: NewTemplateService(repos.Template, logger),
		GS1:      NewGS1Service(source, logger),
		Export:   NewExportService(repos.Product, archiver, logger),
	}
}

// directories builds the configured directory login backends
func directories(cfg config.AuthConfig, logger *zap.Logger) []Directory {
	var out []Directory
	ldapConfig := func(c config.LDAPConfig) directory.LDAPConfig {
		return directory.LDAPConfig{
			URL:          c.URL,
			BaseDN:       c.BaseDN,
			BindDN:       c.BindDN,
			BindPassword: c.BindPassword,
			Timeout:      c.Timeout,
			SkipVerify:   c.SkipVerify,
		}
	}
	if cfg.Azure.Configured() {
		out = append(out, directory.NewAzure(directory.AzureConfig{
			TenantID:     cfg.Azure.TenantID,
			ClientID:     cfg.Azure.ClientID,
			ClientSecret: cfg.Azure.ClientSecret,
			Timeout:      cfg.Azure.Timeout,
		}))
	} else if cfg.Azure.Enabled {
		logger.Warn("Azure AD enabled but tenant or client credentials are missing, method disabled")
	}
	if cfg.LDAP.Configured() {
		out = append(out, directory.NewLDAP(ldapConfig(cfg.LDAP)))
	} else if cfg.LDAP.Enabled {
		logger.Warn("LDAP enabled but url or base_dn is missing, method disabled")
	}
	if cfg.AD.Configured() {
		out = append(out, directory.NewActiveDirectory(ldapConfig(cfg.AD)))
	} else if cfg.AD.Enabled {
		logger.Warn("Active Directory enabled but url or base_dn is missing, method disabled")
	}
	return out
}
