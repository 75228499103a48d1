package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"sort"
	"strconv"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/notifications"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	sender domain.NotificationSender
	users  domain.UserService
	inbox  domain.InboxService
}

func NewHandlersSet(sender domain.NotificationSender, users domain.UserService, inbox domain.InboxService) *Handler {
	return &Handler{
		sender: sender,
		users:  users,
		inbox:  inbox,
	}
}

var validate = validator.New()

var channelNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func channelNameValidator(fl validator.FieldLevel) bool {
	return channelNameRe.MatchString(fl.Field().String())
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "обязательное поле"
	case "min":
		return "слишком мало значений"
	case "max":
		return "слишком длинное значение"
	case "url":
		return "должно быть корректным URL"
	case "channel":
		return "некорректное имя канала"
	default:
		return "некорректное значение"
	}
}

func init() {
	_ = validate.RegisterValidation("channel", channelNameValidator)
}

// bindRequest разбирает JSON и проверяет его валидатором. false означает, что ответ уже отправлен.
func bindRequest(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный JSON: " + err.Error()})
		return false
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			errorsMap := make(map[string]string)
			for _, e := range verrs {
				errorsMap[e.Namespace()] = validationMessage(e)
			}

			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Ошибка валидации",
				"errors":  errorsMap,
			})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// NotifyHandler отправляет уведомление анонимному получателю по явным маршрутам.
func (h *Handler) NotifyHandler(c *gin.Context) {
	var req AnonymousNotifyRequest
	if !bindRequest(c, &req) {
		return
	}

	channels := make([]string, 0, len(req.Routes))
	for ch := range req.Routes {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	recipient := domain.NewAnonymousNotifiable()
	for _, ch := range channels {
		recipient.Route(ch, req.Routes[ch]...)
	}
	if err := recipient.Err(); err != nil {
		h.writeError(c, err)
		return
	}

	n := req.announcement()
	if len(n.Channels) == 0 {
		n.Channels = channels
	}
	if err := h.sender.Send(c.Request.Context(), recipient, n, req.options()...); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": NotifyResponse{
		NotificationID: n.ID(),
		Type:           domain.TypeOf(n),
		Channels:       n.Channels,
		Dry:            req.Dry,
	}})
}

// NotifyUserHandler отправляет уведомление пользователю.
func (h *Handler) NotifyUserHandler(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	var req NotifyRequest
	if !bindRequest(c, &req) {
		return
	}

	n := req.announcement()
	if err := h.sender.Send(c.Request.Context(), user, n, req.options()...); err != nil {
		h.writeError(c, err)
		return
	}

	channels := n.Channels
	if len(channels) == 0 {
		channels = []string{domain.ChannelMail, domain.ChannelDatabase}
	}
	c.JSON(http.StatusOK, gin.H{"result": NotifyResponse{
		NotificationID: n.ID(),
		Type:           domain.TypeOf(n),
		Channels:       channels,
		Dry:            req.Dry,
	}})
}

// WelcomeHandler отправляет пользователю приветствие.
func (h *Handler) WelcomeHandler(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	var req WelcomeRequest
	if !bindRequest(c, &req) {
		return
	}

	n := notifications.NewWelcome(req.AppName, req.LoginURL)
	var opts []domain.SendOption
	if req.Dry {
		opts = append(opts, domain.WithDry())
	}
	if err := h.sender.Send(c.Request.Context(), user, n, opts...); err != nil {
		h.writeError(c, err)
		return
	}

	channels := make([]string, 0, 3)
	for _, ch := range n.Via(user) {
		channels = append(channels, ch.(string))
	}
	c.JSON(http.StatusOK, gin.H{"result": NotifyResponse{
		NotificationID: n.ID(),
		Type:           domain.TypeOf(n),
		Channels:       channels,
		Dry:            req.Dry,
	}})
}

// ListNotificationsHandler уведомления пользователя из канала database.
func (h *Handler) ListNotificationsHandler(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	filter := domain.ReadFilter(c.DefaultQuery("filter", domain.FilterAll.String()))
	list, err := h.inbox.List(c.Request.Context(), user, filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	result := make([]NotificationResponse, 0, len(list))
	for i := range list {
		result = append(result, toResponse(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// MarkAsReadHandler отмечает уведомление пользователя прочитанным.
func (h *Handler) MarkAsReadHandler(c *gin.Context) {
	h.markHandler(c, true)
}

// MarkAsUnreadHandler снимает отметку о прочтении.
func (h *Handler) MarkAsUnreadHandler(c *gin.Context) {
	h.markHandler(c, false)
}

func (h *Handler) markHandler(c *gin.Context, read bool) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	nid := c.Param("nid")
	if nid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nid is required"})
		return
	}

	var (
		n   *domain.DatabaseNotification
		err error
	)
	if read {
		n, err = h.inbox.MarkAsRead(c.Request.Context(), user, nid)
	} else {
		n, err = h.inbox.MarkAsUnread(c.Request.Context(), user, nid)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": toResponse(n)})
}

func (h *Handler) loadUser(c *gin.Context) (*domain.User, bool) {
	idStr := c.Param("id")
	if idStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return nil, false
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is invalid"})
		return nil, false
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return user, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrInvalidChannel),
		errors.Is(err, domain.ErrEmptyRecipient),
		errors.Is(err, domain.ErrAnonymousDatabaseRoute),
		errors.Is(err, domain.ErrInvalidNotificationType):
		return http.StatusBadRequest
	case domain.IsRoutingError(err), errors.Is(err, domain.ErrNotificationFormat):
		return http.StatusUnprocessableEntity
	case domain.IsConfigurationError(err):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// announcement общая часть запросов отправки.
func (r *NotifyRequest) announcement() *notifications.Announcement {
	n := notifications.NewAnnouncement(r.Subject, r.Message)
	n.ActionText = r.ActionText
	n.ActionURL = r.ActionURL
	n.Channels = append([]string(nil), r.Channels...)
	n.Queued = r.Queue
	return n
}

func (r *NotifyRequest) options() []domain.SendOption {
	var opts []domain.SendOption
	if r.Dry {
		opts = append(opts, domain.WithDry())
	}
	if r.FailSilently {
		opts = append(opts, domain.WithFailSilently())
	}
	return opts
}
