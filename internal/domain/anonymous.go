package domain

// AnonymousNotifiable получатель без сущности, только с явными маршрутами.
type AnonymousNotifiable struct {
	channels []string
	routes   map[string]Route
	err      error
}

// NewAnonymousNotifiable создает пустого анонимного получателя.
func NewAnonymousNotifiable() *AnonymousNotifiable {
	return &AnonymousNotifiable{routes: make(map[string]Route)}
}

// Route добавляет маршрут для канала. Канал database запрещен:
// ошибка сохраняется и возвращается из Err.
func (a *AnonymousNotifiable) Route(channel string, destinations ...string) *AnonymousNotifiable {
	if channel == ChannelDatabase {
		if a.err == nil {
			a.err = ErrAnonymousDatabaseRoute
		}
		return a
	}
	if _, ok := a.routes[channel]; !ok {
		a.channels = append(a.channels, channel)
	}
	a.routes[channel] = append(Route(nil), destinations...)
	return a
}

// Err возвращает ошибку построения маршрутов.
func (a *AnonymousNotifiable) Err() error {
	return a.err
}

// Routes возвращает копию маршрутов.
func (a *AnonymousNotifiable) Routes() map[string]Route {
	out := make(map[string]Route, len(a.routes))
	for k, v := range a.routes {
		out[k] = append(Route(nil), v...)
	}
	return out
}

// RouteNotificationFor возвращает маршрут канала.
func (a *AnonymousNotifiable) RouteNotificationFor(channel string, _ Notification) (Route, error) {
	if channel == ChannelDatabase {
		return nil, ErrAnonymousDatabaseRoute
	}
	route, ok := a.routes[channel]
	if !ok || len(route) == 0 {
		return nil, &RouteNotImplementedError{Channel: channel, NotifiableType: AnonymousType}
	}
	return route, nil
}

// NotifiableType всегда AnonymousType.
func (a *AnonymousNotifiable) NotifiableType() string {
	return AnonymousType
}

// NotifiableID первый адрес первого добавленного маршрута.
func (a *AnonymousNotifiable) NotifiableID() string {
	if len(a.channels) == 0 {
		return ""
	}
	return a.routes[a.channels[0]].First()
}

// IsAnonymous отмечает получателя как анонимного.
func (a *AnonymousNotifiable) IsAnonymous() bool {
	return true
}
