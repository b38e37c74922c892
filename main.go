package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/G9999/medical-experts-api/config"
	"github.com/G9999/medical-experts-api/models"
	"github.com/G9999/medical-experts-api/services"
)

var resyncRunsCounter prometheus.Counter

func init() {
	resyncRunsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "counter_resync_runs_total",
			Help: "Total number of full counter resync runs.",
		},
	)
	prometheus.MustRegister(resyncRunsCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}
	models.SetOIDPrefix(cfg.OIDPrefix)

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	// Auto-Migration
	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Seeding
	seedDefaultLookups(db, logging)

	// Setup Services
	counterService := services.NewCounterService(db, logging)
	connectionService := services.NewConnectionService(db, logging)
	affiliationService := services.NewAffiliationService(db, logging)
	statsService := services.NewStatsService(db, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupMedicalExpertRoutes(router, db, counterService, logging)
	setupInstitutionRoutes(router, db, counterService, logging)
	setupClinicalTrialRoutes(router, db, counterService, logging)
	setupEventRoutes(router, db, counterService, logging)
	setupPublicationRoutes(router, db, counterService, logging)
	setupInterventionRoutes(router, db, counterService, logging)
	setupLookupRoutes(router, db, logging)
	setupRelationRoutes(router, db, counterService, logging)
	setupInvestigatorRoutes(router, db, connectionService, affiliationService, statsService, logging)
	setupSpeakerRoutes(router, db, statsService, logging)
	setupAdminRoutes(router, counterService, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled counter resync...")
		if err := counterService.ResyncAll(context.Background()); err != nil {
			logging.Error("Cron job failed", zap.Error(err))
		} else {
			resyncRunsCounter.Inc()
		}
	})
	cronScheduler.Start()

	if cfg.ResyncOnStart {
		go func() {
			if err := counterService.ResyncAll(context.Background()); err != nil {
				logging.Error("Startup counter resync failed", zap.Error(err))
			} else {
				resyncRunsCounter.Inc()
			}
		}()
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func skipCounters(c *gin.Context) bool {
	return c.Query("skip_counters") == "true"
}

func setupMedicalExpertRoutes(router *gin.Engine, db *gorm.DB, counters *services.CounterService, log *zap.Logger) {
	rg := router.Group("/medical-experts")

	rg.POST("/", func(c *gin.Context) {
		var expert models.MedicalExpert
		if err := c.ShouldBindJSON(&expert); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := db.Create(&expert).Error; err != nil {
			log.Error("Failed to create medical expert", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create medical expert"})
			return
		}
		c.JSON(http.StatusCreated, expert)
	})

	// Einfacher GET-Endpunkt, um alle Experten abzurufen (ohne Filter)
	rg.GET("/", func(c *gin.Context) {
		var experts []models.MedicalExpert
		if err := db.Order("first_name, last_name").Find(&experts).Error; err != nil {
			log.Error("Database query for all medical experts failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, experts)
	})

	// Body-gesteuerter Endpunkt für komplexe Abfragen
	rg.POST("/query", func(c *gin.Context) {
		type ExpertQuery struct {
			FirstName     string `json:"first_name"`
			LastName      string `json:"last_name"`
			City          string `json:"city"`
			CountryID     *uint  `json:"country_id"`
			Investigators *bool  `json:"investigators"`
			Speakers      *bool  `json:"speakers"`
			Limit         int    `json:"limit"`
		}

		var req ExpertQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.MedicalExpert{})

		if req.FirstName != "" {
			query = query.Where("first_name LIKE ?", "%"+req.FirstName+"%")
		}
		if req.LastName != "" {
			query = query.Where("last_name LIKE ?", "%"+req.LastName+"%")
		}
		if req.City != "" {
			query = query.Where("city LIKE ?", "%"+req.City+"%")
		}
		if req.CountryID != nil {
			query = query.Where("country_id = ?", *req.CountryID)
		}
		if req.Investigators != nil && *req.Investigators {
			query = query.Where("number_linked_clinical_trials > 0")
		}
		if req.Speakers != nil && *req.Speakers {
			query = query.Where("number_linked_events > 0")
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var experts []models.MedicalExpert
		if err := query.Order("first_name, last_name").Find(&experts).Error; err != nil {
			log.Error("Database query for medical experts failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, experts)
	})

	rg.GET("/:id", func(c *gin.Context) {
		var expert models.MedicalExpert
		if err := db.Preload("Country").Preload("Profession").Preload("Degree").Preload("Gender").
			First(&expert, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "medical expert not found"})
				return
			}
			log.Error("DB error loading medical expert", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, expert)
	})

	rg.PUT("/:id", func(c *gin.Context) {
		var expert models.MedicalExpert
		if err := db.First(&expert, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "medical expert not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		// Nur die gesendeten Felder binden, um Überschreiben zu verhindern
		var updateData map[string]interface{}
		if err := c.ShouldBindJSON(&updateData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		// OID und Zähler sind nicht von außen beschreibbar
		delete(updateData, "oid")
		for _, counter := range []string{
			"number_linked_clinical_trials", "number_linked_institutions",
			"number_linked_institutions_primary_affiliation",
			"number_linked_institutions_subtype_company",
			"number_linked_institutions_coi", "number_linked_events",
			"number_linked_publications",
		} {
			delete(updateData, counter)
		}

		if err := db.Model(&expert).Updates(updateData).Error; err != nil {
			log.Error("DB error updating medical expert", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update medical expert"})
			return
		}
		c.JSON(http.StatusOK, expert)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		var expert models.MedicalExpert
		if err := db.First(&expert, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "medical expert not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		suppress := skipCounters(c)
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, rel := range []interface{}{
				&models.MedicalExpertInstitution{},
				&models.MedicalExpertInstitutionCOI{},
				&models.MedicalExpertClinicalTrial{},
				&models.MedicalExpertEvent{},
				&models.MedicalExpertPublication{},
			} {
				if _, err := counters.DeleteWhere(tx, rel, suppress, "medical_expert_id = ?", expert.ID); err != nil {
					return err
				}
			}
			return tx.Delete(&expert).Error
		})
		if err != nil {
			log.Error("DB error deleting medical expert", zap.Uint("id", expert.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete medical expert"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})
}

func setupInstitutionRoutes(router *gin.Engine, db *gorm.DB, counters *services.CounterService, log *zap.Logger) {
	rg := router.Group("/institutions")

	rg.POST("/", func(c *gin.Context) {
		var institution models.Institution
		if err := c.ShouldBindJSON(&institution); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := db.Create(&institution).Error; err != nil {
			log.Error("Failed to create institution", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create institution"})
			return
		}
		c.JSON(http.StatusCreated, institution)
	})

	rg.GET("/", func(c *gin.Context) {
		query := db.Order("hospital_university")
		if subtype := c.Query("subtype"); subtype != "" {
			query = query.
				Joins("JOIN institution_subtypes ON institution_subtypes.id = institutions.institution_subtype_id").
				Where("institution_subtypes.name = ?", subtype)
		}
		var institutions []models.Institution
		if err := query.Find(&institutions).Error; err != nil {
			log.Error("Database query for institutions failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, institutions)
	})

	rg.GET("/:id", func(c *gin.Context) {
		var institution models.Institution
		if err := db.Preload("InstitutionSubtype").Preload("Country").
			First(&institution, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "institution not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, institution)
	})

	rg.PUT("/:id", func(c *gin.Context) {
		var institution models.Institution
		if err := db.First(&institution, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "institution not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var updateData map[string]interface{}
		if err := c.ShouldBindJSON(&updateData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		delete(updateData, "oid")
		for _, counter := range []string{
			"number_linked_medical_experts", "number_linked_medical_experts_coi",
			"number_linked_institutions",
		} {
			delete(updateData, counter)
		}

		if err := db.Model(&institution).Updates(updateData).Error; err != nil {
			log.Error("DB error updating institution", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update institution"})
			return
		}
		c.JSON(http.StatusOK, institution)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		var institution models.Institution
		if err := db.First(&institution, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "institution not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		suppress := skipCounters(c)
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, rel := range []interface{}{
				&models.MedicalExpertInstitution{},
				&models.MedicalExpertInstitutionCOI{},
				&models.ClinicalTrialInstitution{},
				&models.EventInstitution{},
			} {
				if _, err := counters.DeleteWhere(tx, rel, suppress, "institution_id = ?", institution.ID); err != nil {
					return err
				}
			}
			if _, err := counters.DeleteWhere(tx, &models.InstitutionInstitution{}, suppress,
				"institution_id = ? OR related_institution_id = ?", institution.ID, institution.ID); err != nil {
				return err
			}
			return tx.Delete(&institution).Error
		})
		if err != nil {
			log.Error("DB error deleting institution", zap.Uint("id", institution.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete institution"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})
}

func setupClinicalTrialRoutes(router *gin.Engine, db *gorm.DB, counters *services.CounterService, log *zap.Logger) {
	rg := router.Group("/clinical-trials")

	rg.POST("/", func(c *gin.Context) {
		var trial models.ClinicalTrial
		if err := c.ShouldBindJSON(&trial); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := db.Create(&trial).Error; err != nil {
			log.Error("Failed to create clinical trial", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create clinical trial"})
			return
		}
		c.JSON(http.StatusCreated, trial)
	})

	rg.GET("/", func(c *gin.Context) {
		var trials []models.ClinicalTrial
		if err := db.Order("id").Find(&trials).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, trials)
	})

	rg.GET("/:id", func(c *gin.Context) {
		var trial models.ClinicalTrial
		if err := db.First(&trial, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "clinical trial not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, trial)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		var trial models.ClinicalTrial
		if err := db.First(&trial, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "clinical trial not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		suppress := skipCounters(c)
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, rel := range []interface{}{
				&models.MedicalExpertClinicalTrial{},
				&models.ClinicalTrialIntervention{},
				&models.ClinicalTrialInstitution{},
				&models.ClinicalTrialActiveIngredient{},
				&models.PublicationClinicalTrial{},
			} {
				if _, err := counters.DeleteWhere(tx, rel, suppress, "clinical_trial_id = ?", trial.ID); err != nil {
					return err
				}
			}
			return tx.Delete(&trial).Error
		})
		if err != nil {
			log.Error("DB error deleting clinical trial", zap.Uint("id", trial.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete clinical trial"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})
}

func setupEventRoutes(router *gin.Engine, db *gorm.DB, counters *services.CounterService, log *zap.Logger) {
	rg := router.Group("/events")

	rg.POST("/", func(c *gin.Context) {
		var event models.Event
		if err := c.ShouldBindJSON(&event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := db.Create(&event).Error; err != nil {
			log.Error("Failed to create event", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create event"})
			return
		}
		c.JSON(http.StatusCreated, event)
	})

	rg.GET("/", func(c *gin.Context) {
		var events []models.Event
		if err := db.Order("start_date_year, start_date_month, start_date_day").Find(&events).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, events)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		var event models.Event
		if err := db.First(&event, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		suppress := skipCounters(c)
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, rel := range []interface{}{
				&models.MedicalExpertEvent{},
				&models.EventInstitution{},
			} {
				if _, err := counters.DeleteWhere(tx, rel, suppress, "event_id = ?", event.ID); err != nil {
					return err
				}
			}
			return tx.Delete(&event).Error
		})
		if err != nil {
			log.Error("DB error deleting event", zap.Uint("id", event.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete event"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})
}

func setupPublicationRoutes(router *gin.Engine, db *gorm.DB, counters *services.CounterService, log *zap.Logger) {
	rg := router.Group("/publications")

	rg.POST("/", func(c *gin.Context) {
		var publication models.Publication
		if err := c.ShouldBindJSON(&publication); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := db.Create(&publication).Error; err != nil {
			log.Error("Failed to create publication", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create publication"})
			return
		}
		c.JSON(http.StatusCreated, publication)
	})

	rg.GET("/", func(c *gin.Context) {
		var publications []models.Publication
		if err := db.Order("name").Find(&publications).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, publications)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		var publication models.Publication
		if err := db.First(&publication, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "publication not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		suppress := skipCounters(c)
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, rel := range []interface{}{
				&models.MedicalExpertPublication{},
				&models.PublicationClinicalTrial{},
			} {
				if _, err := counters.DeleteWhere(tx, rel, suppress, "publication_id = ?", publication.ID); err != nil {
					return err
				}
			}
			return tx.Delete(&publication).Error
		})
		if err != nil {
			log.Error("DB error deleting publication", zap.Uint("id", publication.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete publication"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})
}

func setupInterventionRoutes(router *gin.Engine, db *gorm.DB, counters *services.CounterService, log *zap.Logger) {
	rg := router.Group("/interventions")

	rg.POST("/", func(c *gin.Context) {
		var intervention models.Intervention
		if err := c.ShouldBindJSON(&intervention); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := db.Create(&intervention).Error; err != nil {
			log.Error("Failed to create intervention", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create intervention"})
			return
		}
		c.JSON(http.StatusCreated, intervention)
	})

	rg.GET("/", func(c *gin.Context) {
		var interventions []models.Intervention
		if err := db.Order("name").Find(&interventions).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, interventions)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		var intervention models.Intervention
		if err := db.First(&intervention, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "intervention not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		suppress := skipCounters(c)
		err := db.Transaction(func(tx *gorm.DB) error {
			if _, err := counters.DeleteWhere(tx, &models.ClinicalTrialIntervention{}, suppress,
				"intervention_id = ?", intervention.ID); err != nil {
				return err
			}
			return tx.Delete(&intervention).Error
		})
		if err != nil {
			log.Error("DB error deleting intervention", zap.Uint("id", intervention.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete intervention"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})
}

// setupLookupRoutes registriert für jede Nachschlagetabelle dieselben
// beiden Endpunkte.
func setupLookupRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	register := func(path string, newItem func() interface{}, newList func() interface{}) {
		rg := router.Group(path)
		rg.POST("/", func(c *gin.Context) {
			item := newItem()
			if err := c.ShouldBindJSON(item); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
			if err := db.Create(item).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create entry"})
				return
			}
			c.JSON(http.StatusCreated, item)
		})
		rg.GET("/", func(c *gin.Context) {
			list := newList()
			if err := db.Find(list).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			c.JSON(http.StatusOK, list)
		})
	}

	register("/institution-subtypes",
		func() interface{} { return &models.InstitutionSubtype{} },
		func() interface{} { return &[]models.InstitutionSubtype{} })
	register("/positions/expert-institution",
		func() interface{} { return &models.MedicalExpertInstitutionPosition{} },
		func() interface{} { return &[]models.MedicalExpertInstitutionPosition{} })
	register("/positions/expert-clinical-trial",
		func() interface{} { return &models.MedicalExpertClinicalTrialPosition{} },
		func() interface{} { return &[]models.MedicalExpertClinicalTrialPosition{} })
	register("/positions/expert-event",
		func() interface{} { return &models.MedicalExpertEventPosition{} },
		func() interface{} { return &[]models.MedicalExpertEventPosition{} })
	register("/positions/expert-publication",
		func() interface{} { return &models.MedicalExpertPublicationPosition{} },
		func() interface{} { return &[]models.MedicalExpertPublicationPosition{} })
	register("/natures-of-payment",
		func() interface{} { return &models.NatureOfPayment{} },
		func() interface{} { return &[]models.NatureOfPayment{} })
	register("/forms-of-payment",
		func() interface{} { return &models.FormOfPayment{} },
		func() interface{} { return &[]models.FormOfPayment{} })
	register("/currencies",
		func() interface{} { return &models.Currency{} },
		func() interface{} { return &[]models.Currency{} })
	register("/countries",
		func() interface{} { return &models.Country{} },
		func() interface{} { return &[]models.Country{} })
	register("/professions",
		func() interface{} { return &models.Profession{} },
		func() interface{} { return &[]models.Profession{} })
	register("/degrees",
		func() interface{} { return &models.Degree{} },
		func() interface{} { return &[]models.Degree{} })
	register("/genders",
		func() interface{} { return &models.PersonGender{} },
		func() interface{} { return &[]models.PersonGender{} })
	register("/event-subtypes",
		func() interface{} { return &models.EventSubtype{} },
		func() interface{} { return &[]models.EventSubtype{} })
	register("/publication-subtypes",
		func() interface{} { return &models.PublicationSubtype{} },
		func() interface{} { return &[]models.PublicationSubtype{} })
	register("/intervention-subtypes",
		func() interface{} { return &models.InterventionSubtype{} },
		func() interface{} { return &[]models.InterventionSubtype{} })
	register("/relationship-types/clinical-trial-institution",
		func() interface{} { return &models.ClinicalTrialInstitutionRelationshipType{} },
		func() interface{} { return &[]models.ClinicalTrialInstitutionRelationshipType{} })
	register("/relationship-types/clinical-trial-intervention",
		func() interface{} { return &models.ClinicalTrialInterventionRelationshipType{} },
		func() interface{} { return &[]models.ClinicalTrialInterventionRelationshipType{} })
	register("/relationship-types/institution-institution",
		func() interface{} { return &models.InstitutionInstitutionRelationshipType{} },
		func() interface{} { return &[]models.InstitutionInstitutionRelationshipType{} })
}

// setupRelationRoutes registriert für jede Verknüpfungstabelle dieselben
// Endpunkte. Alle Schreibzugriffe laufen in einer Transaktion über den
// CounterService, mit ?skip_counters=true lassen sich die Zähler bei
// Massenimporten unterdrücken.
func setupRelationRoutes(router *gin.Engine, db *gorm.DB, counters *services.CounterService, log *zap.Logger) {
	register := func(path string, newRow func() interface{}, newList func() interface{}, filterColumns []string) {
		rg := router.Group("/relations" + path)

		rg.POST("/", func(c *gin.Context) {
			row := newRow()
			if err := c.ShouldBindJSON(row); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
			suppress := skipCounters(c)
			err := db.Transaction(func(tx *gorm.DB) error {
				return counters.Save(tx, row, suppress)
			})
			if err != nil {
				log.Error("Failed to save relation", zap.String("relation", path), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save relation"})
				return
			}
			c.JSON(http.StatusCreated, row)
		})

		rg.GET("/", func(c *gin.Context) {
			query := db
			for _, column := range filterColumns {
				if v := c.Query(column); v != "" {
					query = query.Where(column+" = ?", v)
				}
			}
			list := newList()
			if err := query.Find(list).Error; err != nil {
				log.Error("Database query for relations failed", zap.String("relation", path), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			c.JSON(http.StatusOK, list)
		})

		rg.DELETE("/:id", func(c *gin.Context) {
			row := newRow()
			if err := db.First(row, c.Param("id")).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "relation not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			suppress := skipCounters(c)
			err := db.Transaction(func(tx *gorm.DB) error {
				return counters.Delete(tx, row, suppress)
			})
			if err != nil {
				log.Error("Failed to delete relation", zap.String("relation", path), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete relation"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"deleted": true})
		})

		rg.POST("/bulk-delete", func(c *gin.Context) {
			var req map[string]interface{}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}

			query := ""
			args := []interface{}{}
			if rawIDs, ok := req["ids"].([]interface{}); ok && len(rawIDs) > 0 {
				query = "id IN ?"
				args = append(args, rawIDs)
			}
			for _, column := range filterColumns {
				if v, ok := req[column]; ok {
					if query != "" {
						query += " AND "
					}
					query += column + " = ?"
					args = append(args, v)
				}
			}
			if query == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "empty filter"})
				return
			}

			suppress := skipCounters(c)
			var deleted int64
			err := db.Transaction(func(tx *gorm.DB) error {
				n, err := counters.DeleteWhere(tx, newRow(), suppress, query, args...)
				deleted = n
				return err
			})
			if err != nil {
				log.Error("Failed to bulk-delete relations", zap.String("relation", path), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete relations"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"deleted": deleted})
		})
	}

	register("/expert-institutions",
		func() interface{} { return &models.MedicalExpertInstitution{} },
		func() interface{} { return &[]models.MedicalExpertInstitution{} },
		[]string{"medical_expert_id", "institution_id"})
	register("/expert-institution-coi",
		func() interface{} { return &models.MedicalExpertInstitutionCOI{} },
		func() interface{} { return &[]models.MedicalExpertInstitutionCOI{} },
		[]string{"medical_expert_id", "institution_id", "year"})
	register("/expert-clinical-trials",
		func() interface{} { return &models.MedicalExpertClinicalTrial{} },
		func() interface{} { return &[]models.MedicalExpertClinicalTrial{} },
		[]string{"medical_expert_id", "clinical_trial_id"})
	register("/expert-events",
		func() interface{} { return &models.MedicalExpertEvent{} },
		func() interface{} { return &[]models.MedicalExpertEvent{} },
		[]string{"medical_expert_id", "event_id"})
	register("/expert-publications",
		func() interface{} { return &models.MedicalExpertPublication{} },
		func() interface{} { return &[]models.MedicalExpertPublication{} },
		[]string{"medical_expert_id", "publication_id"})
	register("/clinical-trial-institutions",
		func() interface{} { return &models.ClinicalTrialInstitution{} },
		func() interface{} { return &[]models.ClinicalTrialInstitution{} },
		[]string{"clinical_trial_id", "institution_id"})
	register("/clinical-trial-interventions",
		func() interface{} { return &models.ClinicalTrialIntervention{} },
		func() interface{} { return &[]models.ClinicalTrialIntervention{} },
		[]string{"clinical_trial_id", "intervention_id"})
	register("/clinical-trial-active-ingredients",
		func() interface{} { return &models.ClinicalTrialActiveIngredient{} },
		func() interface{} { return &[]models.ClinicalTrialActiveIngredient{} },
		[]string{"clinical_trial_id", "active_ingredient_id"})
	register("/event-institutions",
		func() interface{} { return &models.EventInstitution{} },
		func() interface{} { return &[]models.EventInstitution{} },
		[]string{"event_id", "institution_id"})
	register("/publication-clinical-trials",
		func() interface{} { return &models.PublicationClinicalTrial{} },
		func() interface{} { return &[]models.PublicationClinicalTrial{} },
		[]string{"publication_id", "clinical_trial_id"})
	register("/institution-institutions",
		func() interface{} { return &models.InstitutionInstitution{} },
		func() interface{} { return &[]models.InstitutionInstitution{} },
		[]string{"institution_id", "related_institution_id"})
}

func setupInvestigatorRoutes(router *gin.Engine, db *gorm.DB,
	connections *services.ConnectionService, affiliations *services.AffiliationService,
	stats *services.StatsService, log *zap.Logger) {
	rg := router.Group("/investigators")

	// Prüfärzte sind Experten mit mindestens einer verknüpften Studie
	rg.GET("/", func(c *gin.Context) {
		var experts []models.MedicalExpert
		if err := db.Where("number_linked_clinical_trials > 0").
			Order("first_name, last_name").Find(&experts).Error; err != nil {
			log.Error("Database query for investigators failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, experts)
	})

	rg.GET("/per-country", func(c *gin.Context) {
		rows, err := stats.InvestigatorsPerCountry()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.GET("/per-profession", func(c *gin.Context) {
		rows, err := stats.InvestigatorsPerProfession()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.GET("/:id/clinical-trials", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		sub := db.Model(&models.MedicalExpertClinicalTrial{}).
			Select("clinical_trial_id").
			Where("medical_expert_id = ? AND clinical_trial_id IS NOT NULL", id)
		var trials []models.ClinicalTrial
		if err := db.Where("id IN (?)", sub).Order("id").Find(&trials).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, trials)
	})

	rg.GET("/:id/events", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		sub := db.Model(&models.MedicalExpertEvent{}).
			Select("event_id").
			Where("medical_expert_id = ? AND event_id IS NOT NULL", id)
		var events []models.Event
		if err := db.Where("id IN (?)", sub).
			Order("start_date_year, start_date_month, start_date_day").
			Find(&events).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, events)
	})

	rg.GET("/:id/events/per-position", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		rows, err := stats.EventsPerPosition(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.GET("/:id/publications", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		sub := db.Model(&models.MedicalExpertPublication{}).
			Select("publication_id").
			Where("medical_expert_id = ? AND publication_id IS NOT NULL", id)
		var publications []models.Publication
		if err := db.Where("id IN (?)", sub).
			Order("publication_year DESC, name").
			Find(&publications).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, publications)
	})

	rg.GET("/:id/publications/per-year", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		rows, err := stats.PublicationsPerYear(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.GET("/:id/connections", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		result, err := connections.Connections(id)
		if err != nil {
			log.Error("Connection query failed", zap.Uint("medical_expert_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	rg.GET("/:id/connections/:category", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		experts, err := connections.ConnectedExperts(id, c.Param("category"))
		if err != nil {
			if errors.Is(err, services.ErrUnknownCategory) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			log.Error("Connected experts query failed", zap.Uint("medical_expert_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, experts)
	})

	rg.GET("/:id/affiliations", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		result, err := affiliations.Affiliations(id)
		if err != nil {
			log.Error("Affiliation query failed", zap.Uint("medical_expert_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	rg.GET("/:id/affiliations/:category", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		rows, err := affiliations.AffiliationRows(id, c.Param("category"))
		if err != nil {
			if errors.Is(err, services.ErrUnknownCategory) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			log.Error("Affiliation rows query failed", zap.Uint("medical_expert_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.GET("/:id/cooperations", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		rows, err := affiliations.Cooperations(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.GET("/:id/cooperations/per-company", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		rows, err := affiliations.CooperationsPerCompany(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.GET("/:id/cooperations/per-nature-of-payment", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		rows, err := affiliations.CooperationsPerNatureOfPayment(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})
}

func setupSpeakerRoutes(router *gin.Engine, db *gorm.DB, stats *services.StatsService, log *zap.Logger) {
	rg := router.Group("/speakers")

	// Referenten sind Experten mit mindestens einer verknüpften
	// Veranstaltung
	rg.GET("/", func(c *gin.Context) {
		var experts []models.MedicalExpert
		if err := db.Where("number_linked_events > 0").
			Order("first_name, last_name").Find(&experts).Error; err != nil {
			log.Error("Database query for speakers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, experts)
	})

	rg.GET("/per-country", func(c *gin.Context) {
		rows, err := stats.SpeakersPerCountry()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	rg.GET("/per-profession", func(c *gin.Context) {
		rows, err := stats.SpeakersPerProfession()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})
}

func setupAdminRoutes(router *gin.Engine, counters *services.CounterService, log *zap.Logger) {
	rg := router.Group("/admin")

	rg.POST("/resync-counters", func(c *gin.Context) {
		go func() {
			if err := counters.ResyncAll(context.Background()); err != nil {
				log.Error("Async counter resync failed", zap.Error(err))
			} else {
				resyncRunsCounter.Inc()
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Counter resync triggered."})
	})
}

func seedDefaultLookups(db *gorm.DB, logger *zap.Logger) {
	var count int64
	db.Model(&models.InstitutionSubtype{}).Count(&count)
	if count == 0 {
		subtypes := []models.InstitutionSubtype{
			{Name: "University"},
			{Name: "University Department"},
			{Name: "Hospital"},
			{Name: "Hospital Department"},
			{Name: "Medical Practice"},
			{Name: "Company"},
		}
		if err := db.Create(&subtypes).Error; err != nil {
			logger.Warn("Failed to seed institution subtypes", zap.Error(err))
		} else {
			logger.Info("Default institution subtypes seeded.")
		}
	}

	db.Model(&models.MedicalExpertInstitutionPosition{}).Count(&count)
	if count == 0 {
		positions := []models.MedicalExpertInstitutionPosition{
			{Name: "Role Physician"},
			{Name: "Head of"},
			{Name: "Researcher"},
			{Name: "Professor"},
		}
		if err := db.Create(&positions).Error; err != nil {
			logger.Warn("Failed to seed expert institution positions", zap.Error(err))
		} else {
			logger.Info("Default expert institution positions seeded.")
		}
	}
}
