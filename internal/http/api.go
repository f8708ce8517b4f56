package http

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"neuroscan/internal/auth"
	"neuroscan/internal/domain"
	"neuroscan/internal/imaging"
	"neuroscan/internal/repository"
	"neuroscan/internal/service"
)

const identityKey = "identity"

// Handler wires HTTP routes to domain services.
type Handler struct {
	users      service.UserService
	scans      service.ScanService
	console    repository.QueryConsole
	sessions   *auth.SessionManager
	jwtSecret  []byte
	tokenTTL   time.Duration
	uploadsDir string
	maxUpload  int64
}

func NewHandler(
	users service.UserService,
	scans service.ScanService,
	console repository.QueryConsole,
	sessions *auth.SessionManager,
	jwtSecret []byte,
	tokenTTL time.Duration,
	uploadsDir string,
	maxUpload int64,
) *Handler {
	return &Handler{
		users:      users,
		scans:      scans,
		console:    console,
		sessions:   sessions,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		uploadsDir: uploadsDir,
		maxUpload:  maxUpload,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.MaxMultipartMemory = h.maxUpload
	router.Static("/uploads", h.uploadsDir)

	api := router.Group("/api")
	{
		api.POST("/login", h.login)
		api.POST("/patient_login", h.patientLogin)
		api.POST("/logout", h.logout)

		api.POST("/scans", h.submitScan)
		api.POST("/scans/:id/predict", h.predictScan)
		api.GET("/images/:id", h.getImage)

		api.GET("/patients/:id/scans", h.requireRole(domain.RoleAdmin, domain.RoleRadiologist), h.listPatientScans)
		api.DELETE("/patients/:id/scans", h.requireRole(domain.RoleAdmin), h.deletePatientScans)
		api.POST("/query", h.requireRole(domain.RoleAdmin), h.executeQuery)
		api.GET("/patient/records", h.requireRole(domain.RolePatient), h.patientRecords)

		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

// identity resolves the request's principal from the session cookie or,
// failing that, an Authorization bearer token.
func (h *Handler) identity(c *gin.Context) (domain.Identity, bool) {
	if id, ok := h.sessions.Identity(c.Request); ok {
		return id, true
	}

	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		id, err := auth.ParseToken(header[len(prefix):], h.jwtSecret)
		if err == nil {
			return id, true
		}
	}
	return domain.Identity{}, false
}

func (h *Handler) requireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.identity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		for _, role := range roles {
			if id.Role == role {
				c.Set(identityKey, id)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func redirectTarget(role domain.Role) string {
	if role == domain.RolePatient {
		return "/patient_portal"
	}
	return "/database"
}

func (h *Handler) establish(c *gin.Context, id *domain.Identity) {
	if err := h.sessions.Establish(c.Writer, c.Request, *id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := auth.GenerateToken(*id, h.jwtSecret, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"username": id.Username,
		"role":     string(id.Role),
		"redirect": redirectTarget(id.Role),
		"token":    token,
	}
	if id.PatientID != nil {
		resp["patient_id"] = *id.PatientID
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrInvalidCredentials.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.establish(c, id)
}

type patientLoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	PatientID *int64 `json:"patient_id"`
}

func (h *Handler) patientLogin(c *gin.Context) {
	var req patientLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Username == "" && req.PatientID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username or patient_id is required"})
		return
	}

	id, err := h.users.AuthenticatePatient(c.Request.Context(), service.PatientLoginRequest{
		Username:  req.Username,
		Password:  req.Password,
		PatientID: req.PatientID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrInvalidCredentials.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.establish(c, id)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessions.Clear(c.Writer, c.Request); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "/"})
}

func (h *Handler) submitScan(c *gin.Context) {
	fileHeader, err := c.FormFile("mri-upload")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file part"})
		return
	}
	if fileHeader.Size > h.maxUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	var age *int
	if raw := c.PostForm("age"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid age"})
			return
		}
		age = &parsed
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file part"})
		return
	}
	defer file.Close()

	result, err := h.scans.Ingest(c.Request.Context(), service.IngestRequest{
		Filename:     fileHeader.Filename,
		File:         file,
		Age:          age,
		Gender:       c.PostForm("gender"),
		HospitalUnit: c.PostForm("hospital_unit"),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUpload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"patient_id": result.PatientID,
		"username":   result.Username,
		"scan_id":    result.ScanID,
		"file_path":  result.FilePath,
	})
}

func (h *Handler) predictScan(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scan id"})
		return
	}

	record, err := h.scans.Classify(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"classification_id": record.ID,
		"predicted_label":   record.PredictedLabel,
		"confidence":        record.Confidence,
		"model_name":        record.ModelName,
	})
}

func (h *Handler) listPatientScans(c *gin.Context) {
	patientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || patientID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}

	scans, err := h.scans.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]ScanResponse, len(scans))
	for i := range scans {
		resp[i] = scanToResponse(scans[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deletePatientScans(c *gin.Context) {
	patientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || patientID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}

	report, err := h.scans.DeleteByPatient(c.Request.Context(), patientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted_count": report.DeletedCount,
		"deleted_ids":   report.DeletedIDs,
		"removed_files": report.RemovedFiles,
	})
}

type queryRequest struct {
	Query string `json:"query"`
}

func (h *Handler) executeQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	columns, rows, err := h.console.RunReadOnlyQuery(c.Request.Context(), req.Query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Underlying query errors are surfaced as a debug convenience.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"columns": columns, "rows": rows})
}

func (h *Handler) patientRecords(c *gin.Context) {
	id := c.MustGet(identityKey).(domain.Identity)
	if id.PatientID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	scans, err := h.scans.ListByPatient(c.Request.Context(), *id.PatientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]ScanResponse, len(scans))
	for i := range scans {
		resp[i] = scanToResponse(scans[i])
	}
	c.JSON(http.StatusOK, resp)
}

// getImage never fails visibly: any lookup or file problem degrades to
// a generated placeholder payload.
func (h *Handler) getImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Data(http.StatusOK, "image/png", imaging.Placeholder(0))
		return
	}

	scan, err := h.scans.GetScan(c.Request.Context(), id)
	if err == nil {
		for _, path := range []string{scan.ProcessedPath, scan.OriginalPath} {
			if path == "" {
				continue
			}
			if _, statErr := os.Stat(path); statErr == nil {
				c.File(path)
				return
			}
		}
	}

	c.Data(http.StatusOK, "image/png", imaging.Placeholder(id))
}

// ScanResponse is the JSON shape of one scan record.
type ScanResponse struct {
	ID           int64    `json:"id"`
	PatientID    int64    `json:"patient_id"`
	Label        *string  `json:"label"`
	OrigWidth    *int     `json:"orig_width,omitempty"`
	OrigHeight   *int     `json:"orig_height,omitempty"`
	ProcWidth    *int     `json:"proc_width,omitempty"`
	ProcHeight   *int     `json:"proc_height,omitempty"`
	MeanPixel    *float64 `json:"mean_pixel,omitempty"`
	StdPixel     *float64 `json:"std_pixel,omitempty"`
	Age          *int     `json:"age,omitempty"`
	Gender       string   `json:"gender"`
	HospitalUnit string   `json:"hospital_unit"`
	ScanDate     string   `json:"scan_date"`
	ImageURL     string   `json:"image_url"`
}

func scanToResponse(scan domain.Scan) ScanResponse {
	return ScanResponse{
		ID:           scan.ID,
		PatientID:    scan.PatientID,
		Label:        scan.Label,
		OrigWidth:    scan.OrigWidth,
		OrigHeight:   scan.OrigHeight,
		ProcWidth:    scan.ProcWidth,
		ProcHeight:   scan.ProcHeight,
		MeanPixel:    scan.MeanPixel,
		StdPixel:     scan.StdPixel,
		Age:          scan.Age,
		Gender:       scan.Gender,
		HospitalUnit: scan.HospitalUnit,
		ScanDate:     scan.ScanDate.Format(time.RFC3339),
		ImageURL:     service.PublicPath(scan.ProcessedPath),
	}
}
