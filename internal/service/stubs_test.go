package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"obraspm/internal/dto"
	"obraspm/internal/model"
	"obraspm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory RequisicionRepository ──────────────────────────────────────────

type stubRequisicionRepo struct {
	rows      map[int64]*model.Requisicion
	historial []model.RequisicionHistorial
	nextID    int64
	writes    int
	createErr error
}

var _ repository.RequisicionRepository = (*stubRequisicionRepo)(nil)

func newStubRequisicionRepo() *stubRequisicionRepo {
	return &stubRequisicionRepo{rows: make(map[int64]*model.Requisicion)}
}

func (r *stubRequisicionRepo) DB() *gorm.DB { return nil }

func (r *stubRequisicionRepo) Create(_ context.Context, _ *gorm.DB, req *model.Requisicion) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	req.ID = r.nextID
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	cp := *req
	cp.Items = append([]model.RequisicionItem(nil), req.Items...)
	r.rows[req.ID] = &cp
	r.writes++
	return nil
}

func (r *stubRequisicionRepo) load(id int64) (*model.Requisicion, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *row
	cp.Items = append([]model.RequisicionItem(nil), row.Items...)
	cp.Historial = nil
	for _, h := range r.historial {
		if h.RequisicionID == id {
			cp.Historial = append(cp.Historial, h)
		}
	}
	// newest first
	sort.SliceStable(cp.Historial, func(i, j int) bool { return cp.Historial[i].ID > cp.Historial[j].ID })
	return &cp, nil
}

func (r *stubRequisicionRepo) FindByID(_ context.Context, id int64) (*model.Requisicion, error) {
	return r.load(id)
}

func (r *stubRequisicionRepo) FindForUpdate(_ context.Context, _ *gorm.DB, id int64) (*model.Requisicion, error) {
	return r.load(id)
}

func (r *stubRequisicionRepo) ExisteNumero(_ context.Context, proyectoID uuid.UUID, numero string) (bool, error) {
	for _, row := range r.rows {
		if row.ProyectoID == proyectoID && strings.EqualFold(row.Numero, numero) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRequisicionRepo) List(_ context.Context, f dto.RequisicionFilter) ([]model.Requisicion, int64, error) {
	var out []model.Requisicion
	for _, row := range r.rows {
		if row.Archivada != f.Archivadas {
			continue
		}
		if f.Estado != "" && f.Estado != "all" && string(row.Estado) != f.Estado {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubRequisicionRepo) UpdateCabecera(_ context.Context, _ *gorm.DB, req *model.Requisicion) error {
	row, ok := r.rows[req.ID]
	if !ok {
		return repository.ErrNotFound
	}
	items := row.Items
	*row = *req
	row.Items = items
	row.Historial = nil
	r.writes++
	return nil
}

func (r *stubRequisicionRepo) ReplaceItems(_ context.Context, _ *gorm.DB, id int64, items []model.RequisicionItem) error {
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.Items = make([]model.RequisicionItem, len(items))
	for i, it := range items {
		it.RequisicionID = id
		it.ID = int64(i + 1)
		row.Items[i] = it
	}
	r.writes++
	return nil
}

func (r *stubRequisicionRepo) UpdateEstado(_ context.Context, _ *gorm.DB, id int64, estado model.EstadoRequisicion) error {
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.Estado = estado
	r.writes++
	return nil
}

func (r *stubRequisicionRepo) CreateHistorial(_ context.Context, _ *gorm.DB, h *model.RequisicionHistorial) error {
	h.ID = int64(len(r.historial) + 1)
	h.CreatedAt = time.Now()
	r.historial = append(r.historial, *h)
	return nil
}

func (r *stubRequisicionRepo) SetArchivada(_ context.Context, id int64, archivada bool) error {
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.Archivada = archivada
	r.writes++
	return nil
}

func (r *stubRequisicionRepo) historialDe(id int64) []model.RequisicionHistorial {
	var out []model.RequisicionHistorial
	for _, h := range r.historial {
		if h.RequisicionID == id {
			out = append(out, h)
		}
	}
	return out
}

// ── In-memory ProyectoRepository ─────────────────────────────────────────────

type stubProyectoRepo struct {
	proyectos map[uuid.UUID]*model.Proyecto
	miembros  map[uuid.UUID]*model.MiembroProyecto
}

var _ repository.ProyectoRepository = (*stubProyectoRepo)(nil)

func newStubProyectoRepo() *stubProyectoRepo {
	return &stubProyectoRepo{
		proyectos: make(map[uuid.UUID]*model.Proyecto),
		miembros:  make(map[uuid.UUID]*model.MiembroProyecto),
	}
}

func (r *stubProyectoRepo) Create(_ context.Context, p *model.Proyecto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.proyectos[p.ID] = p
	return nil
}

func (r *stubProyectoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Proyecto, error) {
	p, ok := r.proyectos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *stubProyectoRepo) ExisteCodigo(_ context.Context, codigo string) (bool, error) {
	for _, p := range r.proyectos {
		if strings.EqualFold(p.Codigo, codigo) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubProyectoRepo) List(_ context.Context, incluirInactivos bool) ([]model.Proyecto, error) {
	var out []model.Proyecto
	for _, p := range r.proyectos {
		if p.Activo || incluirInactivos {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProyectoRepo) CreateMiembro(_ context.Context, m *model.MiembroProyecto) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.miembros[m.ID] = m
	return nil
}

func (r *stubProyectoRepo) FindMiembro(_ context.Context, id uuid.UUID) (*model.MiembroProyecto, error) {
	m, ok := r.miembros[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

func (r *stubProyectoRepo) ListMiembros(_ context.Context, proyectoID uuid.UUID) ([]model.MiembroProyecto, error) {
	var out []model.MiembroProyecto
	for _, m := range r.miembros {
		if m.ProyectoID == proyectoID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// seedProyecto creates a project with one external member and returns both ids.
func seedProyecto(repo *stubProyectoRepo) (proyectoID, miembroID uuid.UUID) {
	p := &model.Proyecto{ID: uuid.New(), Codigo: "OBR-01", Nombre: "Edificio Marbella", Activo: true}
	repo.proyectos[p.ID] = p
	m := &model.MiembroProyecto{ID: uuid.New(), ProyectoID: p.ID, Tipo: model.MiembroExterno, Nombre: "Ana Pérez"}
	repo.miembros[m.ID] = m
	return p.ID, m.ID
}

// ── In-memory CostosRepository ───────────────────────────────────────────────

type stubCostosRepo struct {
	categorias   map[uuid.UUID]*model.CategoriaCosto
	presupuestos map[uuid.UUID]decimal.Decimal
	asignaciones map[uuid.UUID]map[uuid.UUID]decimal.Decimal
	gastos       []model.GastoProyecto
	ops          []string
	failOn       string
}

var _ repository.CostosRepository = (*stubCostosRepo)(nil)

func newStubCostosRepo() *stubCostosRepo {
	return &stubCostosRepo{
		categorias:   make(map[uuid.UUID]*model.CategoriaCosto),
		presupuestos: make(map[uuid.UUID]decimal.Decimal),
		asignaciones: make(map[uuid.UUID]map[uuid.UUID]decimal.Decimal),
	}
}

func (r *stubCostosRepo) DB() *gorm.DB { return nil }

func (r *stubCostosRepo) record(op string) error {
	r.ops = append(r.ops, op)
	if r.failOn != "" && strings.HasPrefix(op, r.failOn) {
		return errors.New("db down")
	}
	return nil
}

func (r *stubCostosRepo) ListCategorias(_ context.Context, proyectoID uuid.UUID, incluirInactivas bool) ([]model.CategoriaCosto, error) {
	var out []model.CategoriaCosto
	for _, c := range r.categorias {
		if c.ProyectoID == proyectoID && (c.Activo || incluirInactivas) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubCostosRepo) FindCategoria(_ context.Context, id uuid.UUID) (*model.CategoriaCosto, error) {
	c, ok := r.categorias[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCostosRepo) FindCategoriaPorNombre(_ context.Context, proyectoID uuid.UUID, nombre string) (*model.CategoriaCosto, error) {
	for _, c := range r.categorias {
		if c.ProyectoID == proyectoID && strings.EqualFold(c.Nombre, nombre) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubCostosRepo) CreateCategoria(_ context.Context, _ *gorm.DB, c *model.CategoriaCosto) error {
	if err := r.record("crear:" + c.Nombre); err != nil {
		return err
	}
	c.ID = uuid.New()
	cp := *c
	r.categorias[c.ID] = &cp
	return nil
}

func (r *stubCostosRepo) SetCategoriaActiva(_ context.Context, _ *gorm.DB, id uuid.UUID, activo bool) error {
	c, ok := r.categorias[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.record(fmt.Sprintf("activa:%s:%t", c.Nombre, activo)); err != nil {
		return err
	}
	c.Activo = activo
	return nil
}

func (r *stubCostosRepo) FindPresupuesto(_ context.Context, proyectoID uuid.UUID) (*model.PresupuestoProyecto, error) {
	t, ok := r.presupuestos[proyectoID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.PresupuestoProyecto{ProyectoID: proyectoID, Total: t}, nil
}

func (r *stubCostosRepo) ListAsignaciones(_ context.Context, proyectoID uuid.UUID) ([]model.AsignacionPresupuesto, error) {
	var out []model.AsignacionPresupuesto
	for id, m := range r.asignaciones[proyectoID] {
		out = append(out, model.AsignacionPresupuesto{ProyectoID: proyectoID, CategoriaID: id, Monto: m})
	}
	return out, nil
}

func (r *stubCostosRepo) DeleteAsignacion(_ context.Context, _ *gorm.DB, proyectoID, categoriaID uuid.UUID) error {
	if err := r.record("borrar_asignacion"); err != nil {
		return err
	}
	delete(r.asignaciones[proyectoID], categoriaID)
	return nil
}

func (r *stubCostosRepo) GuardarPresupuesto(_ context.Context, _ *gorm.DB, proyectoID uuid.UUID, total decimal.Decimal, asignaciones []model.AsignacionPresupuesto) error {
	if err := r.record("guardar"); err != nil {
		return err
	}
	r.presupuestos[proyectoID] = total
	m := make(map[uuid.UUID]decimal.Decimal, len(asignaciones))
	for _, a := range asignaciones {
		m[a.CategoriaID] = a.Monto
	}
	r.asignaciones[proyectoID] = m
	return nil
}

func (r *stubCostosRepo) CreateGasto(_ context.Context, _ *gorm.DB, g *model.GastoProyecto) error {
	if err := r.record("gasto"); err != nil {
		return err
	}
	g.ID = uuid.New()
	r.gastos = append(r.gastos, *g)
	return nil
}

func (r *stubCostosRepo) ListGastos(_ context.Context, proyectoID uuid.UUID) ([]model.GastoProyecto, error) {
	var out []model.GastoProyecto
	for _, g := range r.gastos {
		if g.ProyectoID == proyectoID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *stubCostosRepo) GastoPorCategoria(_ context.Context, proyectoID uuid.UUID) ([]repository.GastoPorCategoria, error) {
	sums := map[string]*repository.GastoPorCategoria{}
	var keys []string
	for _, g := range r.gastos {
		if g.ProyectoID != proyectoID {
			continue
		}
		k := ""
		if g.CategoriaID != nil {
			k = g.CategoriaID.String()
		}
		row, ok := sums[k]
		if !ok {
			row = &repository.GastoPorCategoria{CategoriaID: g.CategoriaID, Total: decimal.Zero}
			sums[k] = row
			keys = append(keys, k)
		}
		row.Total = row.Total.Add(g.Monto)
	}
	out := make([]repository.GastoPorCategoria, 0, len(keys))
	for _, k := range keys {
		out = append(out, *sums[k])
	}
	return out, nil
}

func (r *stubCostosRepo) seedCategoria(proyectoID uuid.UUID, nombre string, activo bool) uuid.UUID {
	c := &model.CategoriaCosto{ID: uuid.New(), ProyectoID: proyectoID, Nombre: nombre, Activo: activo}
	r.categorias[c.ID] = c
	return c.ID
}

func (r *stubCostosRepo) seedPresupuesto(proyectoID uuid.UUID, total string, montos map[uuid.UUID]string) {
	r.presupuestos[proyectoID] = decimal.RequireFromString(total)
	m := make(map[uuid.UUID]decimal.Decimal, len(montos))
	for id, v := range montos {
		m[id] = decimal.RequireFromString(v)
	}
	r.asignaciones[proyectoID] = m
}

// ── In-memory UsuarioRepository ──────────────────────────────────────────────

type stubUsuarioRepo struct {
	users map[string]*model.Usuario
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{users: make(map[string]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	u.ID = uuid.New()
	r.users[u.Username] = u
	return nil
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	u, ok := r.users[username]
	if !ok || !u.Activo {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUsuarioRepo) List(_ context.Context, incluirInactivos bool) ([]model.Usuario, error) {
	users := make([]model.Usuario, 0, len(r.users))
	for _, u := range r.users {
		if u.Activo || incluirInactivos {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *stubUsuarioRepo) SetActivo(_ context.Context, id uuid.UUID, activo bool) error {
	for _, u := range r.users {
		if u.ID == id {
			u.Activo = activo
			return nil
		}
	}
	return repository.ErrNotFound
}

// ── Notificador / RegistradorGastos ──────────────────────────────────────────

type stubNotificador struct {
	jobs []dto.NotificacionEstadoJob
	err  error
}

func (n *stubNotificador) EnqueueNotificacion(_ context.Context, job dto.NotificacionEstadoJob) error {
	if n.err != nil {
		return n.err
	}
	n.jobs = append(n.jobs, job)
	return nil
}

type stubGastos struct {
	pagadas []int64
}

func (g *stubGastos) RegistrarGastoRequisicion(_ context.Context, _ *gorm.DB, r *model.Requisicion) error {
	g.pagadas = append(g.pagadas, r.ID)
	return nil
}
