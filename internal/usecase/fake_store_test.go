package usecase

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"fulfillment/internal/domain/model"
	repo "fulfillment/internal/repository"
)

// テスト用のインメモリDB。Tx開始時に丸ごとコピーし、成功したら差し替える
type memState struct {
	seq        map[string]int64
	users      map[int64]model.User
	roles      map[int64]model.Role
	userRoles  map[[2]int64]struct{}
	apps       map[int64]model.RoleApplication
	products   map[int64]model.Product
	cart       map[int64]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64]model.OrderItem
	audits     []model.AuditLog
}

func newMemState() *memState {
	return &memState{
		seq:        map[string]int64{},
		users:      map[int64]model.User{},
		roles:      map[int64]model.Role{},
		userRoles:  map[[2]int64]struct{}{},
		apps:       map[int64]model.RoleApplication{},
		products:   map[int64]model.Product{},
		cart:       map[int64]model.CartItem{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64]model.OrderItem{},
	}
}

func (s *memState) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.seq {
		c.seq[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k := range s.userRoles {
		c.userRoles[k] = struct{}{}
	}
	for k, v := range s.apps {
		c.apps[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.cart {
		c.cart[k] = v
	}
	for k, v := range s.orders {
		if v.ShipperID != nil {
			id := *v.ShipperID
			v.ShipperID = &id
		}
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = v
	}
	c.audits = append([]model.AuditLog(nil), s.audits...)
	return c
}

type memStore struct {
	mu    sync.Mutex
	state *memState

	// 指定するとその操作でエラーにする（ロールバック確認用）
	failAudit error
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) current() *memState { return m.state }

// カタログ側の変更を再現する（商品の登録・編集はリポジトリに無い）
func (m *memStore) putProduct(p *model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.state.next("products")
		p.CreatedAt = time.Now()
	}
	m.state.products[p.ID] = *p
}

func (m *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memTx{store: m, st: func() *memState { return work }}); err != nil {
		return err
	}
	m.state = work
	return nil
}

// Tx外から使う窓口（Guardなど）
func (m *memStore) repos() *memTx {
	return &memTx{store: m, st: m.current}
}

type memTx struct {
	store *memStore
	st    func() *memState
}

func (t *memTx) Users() repo.UserRepository { return memUsers{t} }
func (t *memTx) Roles() repo.RoleRepository { return memRoles{t} }
func (t *memTx) RoleApplications() repo.RoleApplicationRepository {
	return memApps{t}
}
func (t *memTx) Products() repo.ProductRepository     { return memProducts{t} }
func (t *memTx) Inventory() repo.InventoryRepository  { return memInventory{t} }
func (t *memTx) CartItems() repo.CartItemRepository   { return memCart{t} }
func (t *memTx) Orders() repo.OrderRepository         { return memOrders{t} }
func (t *memTx) OrderItems() repo.OrderItemRepository { return memOrderItems{t} }
func (t *memTx) AuditLogs() repo.AuditLogRepository   { return memAudits{t} }

// users

type memUsers struct{ t *memTx }

func (r memUsers) Create(ctx context.Context, user *model.User) error {
	s := r.t.st()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repo.ErrDuplicate
		}
	}
	user.ID = s.next("users")
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(ctx context.Context, userID int64) (model.User, error) {
	u, ok := r.t.st().users[userID]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r memUsers) FindByUsername(ctx context.Context, username string) (model.User, error) {
	for _, u := range r.t.st().users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (model.User, error) {
	for _, u := range r.t.st().users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

func (r memUsers) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	s := r.t.st()
	u, ok := s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = passwordHash
	s.users[userID] = u
	return nil
}

func (r memUsers) SetActive(ctx context.Context, userID int64, active bool) error {
	s := r.t.st()
	u, ok := s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.IsActive = active
	s.users[userID] = u
	return nil
}

func (r memUsers) List(ctx context.Context, page int, limit int) ([]model.User, int64, error) {
	s := r.t.st()
	all := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page, limit), int64(len(all)), nil
}

// roles

type memRoles struct{ t *memTx }

func (r memRoles) Ensure(ctx context.Context, name model.RoleName, description string) (model.Role, error) {
	if role, err := r.FindByName(ctx, name); err == nil {
		return role, nil
	}
	s := r.t.st()
	role := model.Role{ID: s.next("roles"), Name: name, Description: description, CreatedAt: time.Now()}
	s.roles[role.ID] = role
	return role, nil
}

func (r memRoles) FindByName(ctx context.Context, name model.RoleName) (model.Role, error) {
	for _, role := range r.t.st().roles {
		if role.Name == name {
			return role, nil
		}
	}
	return model.Role{}, repo.ErrNotFound
}

func (r memRoles) ListNamesByUserID(ctx context.Context, userID int64) ([]model.RoleName, error) {
	s := r.t.st()
	out := []model.RoleName{}
	for k := range s.userRoles {
		if k[0] == userID {
			out = append(out, s.roles[k[1]].Name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r memRoles) Grant(ctx context.Context, userID int64, roleID int64) error {
	r.t.st().userRoles[[2]int64{userID, roleID}] = struct{}{}
	return nil
}

func (r memRoles) ReplaceGrants(ctx context.Context, userID int64, roleIDs []int64) error {
	s := r.t.st()
	for k := range s.userRoles {
		if k[0] == userID {
			delete(s.userRoles, k)
		}
	}
	for _, id := range roleIDs {
		s.userRoles[[2]int64{userID, id}] = struct{}{}
	}
	return nil
}

// role applications

type memApps struct{ t *memTx }

func (r memApps) Create(ctx context.Context, app *model.RoleApplication) error {
	s := r.t.st()
	app.ID = s.next("apps")
	app.CreatedAt = time.Now()
	s.apps[app.ID] = *app
	return nil
}

func (r memApps) FindByID(ctx context.Context, id int64) (model.RoleApplication, error) {
	a, ok := r.t.st().apps[id]
	if !ok {
		return model.RoleApplication{}, repo.ErrNotFound
	}
	return a, nil
}

func (r memApps) HasPending(ctx context.Context, userID int64, role model.RoleName) (bool, error) {
	for _, a := range r.t.st().apps {
		if a.UserID == userID && a.RoleName == role && a.Status == model.RoleApplicationPending {
			return true, nil
		}
	}
	return false, nil
}

func (r memApps) ListByUserID(ctx context.Context, userID int64) ([]model.RoleApplication, error) {
	out := []model.RoleApplication{}
	for _, a := range r.t.st().apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memApps) List(ctx context.Context, status model.RoleApplicationStatus) ([]model.RoleApplication, error) {
	out := []model.RoleApplication{}
	for _, a := range r.t.st().apps {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memApps) Update(ctx context.Context, app model.RoleApplication) error {
	s := r.t.st()
	if _, ok := s.apps[app.ID]; !ok {
		return repo.ErrNotFound
	}
	s.apps[app.ID] = app
	return nil
}

// products

type memProducts struct{ t *memTx }

func (r memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.t.st().products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) FindByIDsForUpdate(ctx context.Context, ids []int64) ([]model.Product, error) {
	out := []model.Product{}
	for _, id := range ids {
		if p, err := r.FindByID(ctx, id); err == nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProducts) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	out := []model.Product{}
	for _, p := range r.t.st().products {
		if p.IsActive && !p.DeletedAt.Valid && p.LowStock(threshold) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// inventory

type memInventory struct{ t *memTx }

func (r memInventory) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	s := r.t.st()
	p, ok := s.products[productID]
	if !ok || p.StockQuantity < qty {
		return false, nil
	}
	p.StockQuantity -= qty
	s.products[productID] = p
	return true, nil
}

func (r memInventory) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	s := r.t.st()
	p, ok := s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.StockQuantity += qty
	s.products[productID] = p
	return nil
}

// cart

type memCart struct{ t *memTx }

func (r memCart) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	out := []model.CartItem{}
	for _, it := range r.t.st().cart {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCart) FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartItem, error) {
	for _, it := range r.t.st().cart {
		if it.UserID == userID && it.ProductID == productID {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (r memCart) FindByIDForUser(ctx context.Context, cartItemID int64, userID int64) (model.CartItem, error) {
	it, ok := r.t.st().cart[cartItemID]
	if !ok || it.UserID != userID {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (r memCart) Create(ctx context.Context, item *model.CartItem) error {
	if _, err := r.FindByUserAndProduct(ctx, item.UserID, item.ProductID); err == nil {
		return repo.ErrDuplicate
	}
	s := r.t.st()
	item.ID = s.next("cart")
	item.CreatedAt = time.Now()
	s.cart[item.ID] = *item
	return nil
}

func (r memCart) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	s := r.t.st()
	it, ok := s.cart[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	s.cart[cartItemID] = it
	return nil
}

func (r memCart) DeleteByID(ctx context.Context, cartItemID int64) error {
	s := r.t.st()
	if _, ok := s.cart[cartItemID]; !ok {
		return repo.ErrNotFound
	}
	delete(s.cart, cartItemID)
	return nil
}

func (r memCart) DeleteByUserID(ctx context.Context, userID int64) error {
	s := r.t.st()
	for id, it := range s.cart {
		if it.UserID == userID {
			delete(s.cart, id)
		}
	}
	return nil
}

// orders

type memOrders struct{ t *memTx }

func (r memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.t.st().orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r memOrders) Create(ctx context.Context, order *model.Order) error {
	s := r.t.st()
	order.ID = s.next("orders")
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	stored.Items = nil
	s.orders[order.ID] = stored
	return nil
}

func (r memOrders) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	s := r.t.st()
	o, ok := s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	s.orders[orderID] = o
	return nil
}

func (r memOrders) UpdateShipper(ctx context.Context, orderID int64, shipperID int64) error {
	s := r.t.st()
	o, ok := s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	id := shipperID
	o.ShipperID = &id
	s.orders[orderID] = o
	return nil
}

func (r memOrders) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	out := []model.Order{}
	for _, o := range r.t.st().orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.ShipperID != nil && !o.IsAssignedTo(*f.ShipperID) {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, o)
	}
	// 新しい順
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Page, f.Limit), int64(len(out)), nil
}

// order items

type memOrderItems struct{ t *memTx }

func (r memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	s := r.t.st()
	for i := range items {
		items[i].ID = s.next("order_items")
		items[i].OrderID = orderID
		items[i].CreatedAt = time.Now()
		s.orderItems[items[i].ID] = items[i]
	}
	return nil
}

func (r memOrderItems) ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	out := make(map[int64][]model.OrderItem, len(orderIDs))
	for _, id := range orderIDs {
		items, err := r.ListByOrderID(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			out[id] = items
		}
	}
	return out, nil
}

func (r memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	out := []model.OrderItem{}
	for _, it := range r.t.st().orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// audit logs

type memAudits struct{ t *memTx }

func (r memAudits) Create(ctx context.Context, log model.AuditLog) error {
	if r.t.store.failAudit != nil {
		return r.t.store.failAudit
	}
	s := r.t.st()
	log.ID = s.next("audits")
	log.CreatedAt = time.Now()
	s.audits = append(s.audits, log)
	return nil
}

func (r memAudits) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	matched := []model.AuditLog{}
	for i := len(r.t.st().audits) - 1; i >= 0; i-- {
		a := r.t.st().audits[i]
		if f.ActorUserID != nil && a.ActorUserID != *f.ActorUserID {
			continue
		}
		if len(f.Actions) > 0 && !slices.Contains(f.Actions, a.Action) {
			continue
		}
		if f.ResourceType != nil && a.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != nil && a.ResourceID != *f.ResourceID {
			continue
		}
		if f.CreatedFrom != nil && a.CreatedAt.Before(*f.CreatedFrom) {
			continue
		}
		if f.CreatedTo != nil && !a.CreatedAt.Before(*f.CreatedTo) {
			continue
		}
		matched = append(matched, a)
	}

	out := matched
	if f.Offset >= len(out) {
		out = []model.AuditLog{}
	} else {
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, int64(len(matched)), nil
}

func paginate[T any](all []T, page int, limit int) []T {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
