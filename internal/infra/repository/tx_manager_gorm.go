package repository

import (
	"context"
	"database/sql"

	repo "fulfillment/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	users            repo.UserRepository
	roles            repo.RoleRepository
	roleApplications repo.RoleApplicationRepository
	products         repo.ProductRepository
	inventory        repo.InventoryRepository
	cartItems        repo.CartItemRepository
	orders           repo.OrderRepository
	orderItems       repo.OrderItemRepository
	auditLogs        repo.AuditLogRepository
}

func (r *txReposGorm) Users() repo.UserRepository { return r.users }
func (r *txReposGorm) Roles() repo.RoleRepository { return r.roles }
func (r *txReposGorm) RoleApplications() repo.RoleApplicationRepository {
	return r.roleApplications
}
func (r *txReposGorm) Products() repo.ProductRepository     { return r.products }
func (r *txReposGorm) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txReposGorm) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *txReposGorm) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

// db（Tx有無どちらでも）からrepo一式を作る
func newTxRepos(db *gorm.DB) *txReposGorm {
	return &txReposGorm{
		users:            NewUserGormRepository(db),
		roles:            NewRoleGormRepository(db),
		roleApplications: NewRoleApplicationGormRepository(db),
		products:         NewProductGormRepository(db),
		inventory:        NewInventoryGormRepository(db),
		cartItems:        NewCartGormRepository(db),
		orders:           NewOrderGormRepository(db),
		orderItems:       NewOrderItemGormRepository(db),
		auditLogs:        NewAuditLogGormRepository(db),
	}
}

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// READ COMMITTED。在庫はFOR UPDATEの行ロック＋条件付きUPDATEで守る
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		return fn(newTxRepos(tx))
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}
