package service

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"streamvault/internal/models"
)

// In-memory store fakes. They mirror the repository contract: lookups
// return gorm.ErrRecordNotFound when the row does not exist.

type fakeUsers struct {
	users     map[uint]*models.User
	nextID    uint
	createErr error
	deleted   []uint
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[uint]*models.User{}, nextID: 1}
}

func (f *fakeUsers) add(u models.User) *models.User {
	if u.ID == 0 {
		u.ID = f.nextID
	}
	if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	f.users[u.ID] = &u
	return f.users[u.ID]
}

func (f *fakeUsers) FindByID(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) FindByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) Create(user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) Delete(id uint) error {
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePlans struct {
	plans   map[uint]*models.Plan
	pricing map[uint]map[int]string
}

func newFakePlans() *fakePlans {
	return &fakePlans{plans: map[uint]*models.Plan{}, pricing: map[uint]map[int]string{}}
}

func (f *fakePlans) add(p models.Plan, prices map[int]string) {
	f.plans[p.ID] = &p
	f.pricing[p.ID] = prices
}

func (f *fakePlans) FindByID(id uint) (*models.Plan, error) {
	if p, ok := f.plans[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePlans) FindAll(activeOnly bool) ([]models.Plan, error) {
	var out []models.Plan
	for _, p := range f.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePlans) Create(plan *models.Plan) error {
	if plan.ID == 0 {
		plan.ID = uint(len(f.plans) + 1)
	}
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakePlans) Update(id uint, updates map[string]interface{}) error {
	if _, ok := f.plans[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (f *fakePlans) Delete(id uint) error {
	delete(f.plans, id)
	return nil
}

func (f *fakePlans) ReplacePricing(planID uint, rows []models.PlanPricing) error {
	prices := map[int]string{}
	for _, r := range rows {
		prices[r.Connections] = r.Price
	}
	f.pricing[planID] = prices
	return nil
}

func (f *fakePlans) PriceFor(planID uint, connections int) (string, error) {
	if prices, ok := f.pricing[planID]; ok {
		if price, ok := prices[connections]; ok {
			return price, nil
		}
	}
	return "", gorm.ErrRecordNotFound
}

type fakeOptions struct {
	methods []models.PaymentMethod
	widgets []models.PaymentWidget
}

func (f *fakeOptions) MethodsForPlan(planID uint, connections int) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	for _, m := range f.methods {
		if m.PlanID == planID && m.IsActive && m.MinConnections <= connections && m.MaxConnections >= connections {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (f *fakeOptions) WidgetForPlan(planID uint, connections int) (*models.PaymentWidget, error) {
	for i := range f.widgets {
		w := f.widgets[i]
		if w.PlanID == planID && w.IsActive && w.MinConnections <= connections && w.MaxConnections >= connections {
			return &w, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOptions) FindMethodByID(id uint) (*models.PaymentMethod, error) {
	for i := range f.methods {
		if f.methods[i].ID == id {
			return &f.methods[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOptions) FindWidgetByID(id uint) (*models.PaymentWidget, error) {
	for i := range f.widgets {
		if f.widgets[i].ID == id {
			return &f.widgets[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOptions) FindAllMethods() ([]models.PaymentMethod, error) { return f.methods, nil }
func (f *fakeOptions) FindAllWidgets() ([]models.PaymentWidget, error) { return f.widgets, nil }

func (f *fakeOptions) CreateMethod(m *models.PaymentMethod) error {
	m.ID = uint(len(f.methods) + 1)
	f.methods = append(f.methods, *m)
	return nil
}

func (f *fakeOptions) UpdateMethod(id uint, updates map[string]interface{}) error { return nil }

func (f *fakeOptions) DeleteMethod(id uint) error {
	for i := range f.methods {
		if f.methods[i].ID == id {
			f.methods = append(f.methods[:i], f.methods[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeOptions) CreateWidget(w *models.PaymentWidget) error {
	w.ID = uint(len(f.widgets) + 1)
	f.widgets = append(f.widgets, *w)
	return nil
}

func (f *fakeOptions) UpdateWidget(id uint, updates map[string]interface{}) error { return nil }

func (f *fakeOptions) DeleteWidget(id uint) error {
	for i := range f.widgets {
		if f.widgets[i].ID == id {
			f.widgets = append(f.widgets[:i], f.widgets[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeOrders struct {
	orders    map[uint]*models.Order
	nextID    uint
	createErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[uint]*models.Order{}, nextID: 1}
}

func (f *fakeOrders) add(o models.Order) *models.Order {
	if o.ID == 0 {
		o.ID = f.nextID
	}
	if o.ID >= f.nextID {
		f.nextID = o.ID + 1
	}
	f.orders[o.ID] = &o
	return f.orders[o.ID]
}

func (f *fakeOrders) FindByID(id uint) (*models.Order, error) {
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrders) FindByOrderNo(orderNo string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.OrderNo == orderNo {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrders) FindAll(status string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeOrders) FindByUserID(userID uint) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeOrders) Create(order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	order.ID = f.nextID
	f.nextID++
	order.CreatedAt = time.Now()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrders) Update(id uint, updates map[string]interface{}) error {
	o, ok := f.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	applyOrderUpdates(o, updates)
	return nil
}

func (f *fakeOrders) TransitionFromPending(id uint, updates map[string]interface{}) (int64, error) {
	o, ok := f.orders[id]
	if !ok || o.Status != models.OrderStatusPending {
		return 0, nil
	}
	applyOrderUpdates(o, updates)
	return 1, nil
}

func applyOrderUpdates(o *models.Order, updates map[string]interface{}) {
	for key, v := range updates {
		switch key {
		case "status":
			o.Status = v.(string)
		case "payment_confirmed_at":
			o.PaymentConfirmedAt = v.(*time.Time)
		case "verified_at":
			o.VerifiedAt = v.(*time.Time)
		case "verified_by":
			id := v.(uint)
			o.VerifiedBy = &id
		case "rejected_at":
			o.RejectedAt = v.(*time.Time)
		case "rejected_by":
			id := v.(uint)
			o.RejectedBy = &id
		case "rejection_reason":
			o.RejectionReason = v.(string)
		case "notes":
			o.Notes = v.(string)
		}
	}
}

type fakeCredentials struct {
	creds  map[uint]*models.IptvCredential
	nextID uint
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{creds: map[uint]*models.IptvCredential{}, nextID: 1}
}

func (f *fakeCredentials) FindByID(id uint) (*models.IptvCredential, error) {
	if c, ok := f.creds[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCredentials) FindByUserID(userID uint) ([]models.IptvCredential, error) {
	var out []models.IptvCredential
	for _, c := range f.creds {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCredentials) FindByOrderID(orderID uint) ([]models.IptvCredential, error) {
	var out []models.IptvCredential
	for _, c := range f.creds {
		if c.OrderID == orderID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnectionNumber < out[j].ConnectionNumber })
	return out, nil
}

func (f *fakeCredentials) FindByOrderAndSlot(orderID uint, connectionNumber int) (*models.IptvCredential, error) {
	for _, c := range f.creds {
		if c.OrderID == orderID && c.ConnectionNumber == connectionNumber {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCredentials) Create(cred *models.IptvCredential) error {
	cred.ID = f.nextID
	f.nextID++
	f.creds[cred.ID] = cred
	return nil
}

func (f *fakeCredentials) Update(id uint, updates map[string]interface{}) error {
	if _, ok := f.creds[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (f *fakeCredentials) Delete(id uint) error {
	delete(f.creds, id)
	return nil
}

type activityEntry struct {
	Action     string
	EntityType string
	EntityID   uint
	ActorID    uint
}

type fakeActivity struct {
	entries []activityEntry
}

func (f *fakeActivity) Append(action, entityType string, entityID, actorID uint, detail map[string]interface{}) error {
	f.entries = append(f.entries, activityEntry{Action: action, EntityType: entityType, EntityID: entityID, ActorID: actorID})
	return nil
}

func (f *fakeActivity) has(action string) bool {
	for _, e := range f.entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

// recordingMailer records every send as "kind:to".
type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) record(kind, to string) {
	m.sent = append(m.sent, fmt.Sprintf("%s:%s", kind, to))
}

func (m *recordingMailer) SendOrderConfirmation(to string, order *models.Order, planName string) error {
	m.record("order_confirmation", to)
	return nil
}

func (m *recordingMailer) SendNewOrderAlert(order *models.Order, buyerEmail string) error {
	m.record("new_order_alert", "admin")
	return nil
}

func (m *recordingMailer) SendPaymentVerified(to string, order *models.Order) error {
	m.record("payment_verified", to)
	return nil
}

func (m *recordingMailer) SendPaymentRejected(to string, order *models.Order, reason string) error {
	m.record("payment_rejected", to)
	return nil
}

func (m *recordingMailer) SendCredentialsDelivered(to string, cred *models.IptvCredential) error {
	m.record("credentials_delivered", to)
	return nil
}

func (m *recordingMailer) SendExpiryReminder(to string, cred *models.IptvCredential) error {
	m.record("expiry_reminder", to)
	return nil
}

func (m *recordingMailer) has(kind string) bool {
	for _, s := range m.sent {
		if len(s) >= len(kind) && s[:len(kind)] == kind {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	orders []string
}

func (n *recordingNotifier) NewOrder(order *models.Order, buyerEmail string) error {
	n.orders = append(n.orders, order.OrderNo)
	return nil
}

type fakeSessions struct {
	err error
}

func (f *fakeSessions) Mint(user *models.User) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("session-%d", user.ID), nil
}

// orderEnv wires an OrderService onto fresh fakes.
type orderEnv struct {
	users    *fakeUsers
	plans    *fakePlans
	options  *fakeOptions
	orders   *fakeOrders
	creds    *fakeCredentials
	activity *fakeActivity
	mailer   *recordingMailer
	notifier *recordingNotifier
	service  *OrderService
}

func newOrderEnv() *orderEnv {
	env := &orderEnv{
		users:    newFakeUsers(),
		plans:    newFakePlans(),
		options:  &fakeOptions{},
		orders:   newFakeOrders(),
		creds:    newFakeCredentials(),
		activity: &fakeActivity{},
		mailer:   &recordingMailer{},
		notifier: &recordingNotifier{},
	}
	env.service = NewOrderService(
		env.orders, env.plans, env.options, env.users, env.activity,
		env.mailer, env.notifier, zap.NewNop(),
	)
	return env
}
