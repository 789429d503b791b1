package livesync

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"
)

// ======================================================
// Identity — quem está conectado
// ======================================================

type Identity struct {
	UserType     string
	DoctorID     uint
	PatientEmail string
}

// Matches diz se um registro é relevante para esta identidade:
// médico filtra por doctor_id, paciente por e-mail. Eventos
// irrelevantes ainda atualizam o cache, mas não geram notificação.
func (id Identity) Matches(rec AppointmentRecord) bool {
	switch id.UserType {
	case UserTypeDoctor:
		return rec.DoctorID == id.DoctorID
	case UserTypePatient:
		return rec.PatientEmail == id.PatientEmail
	}
	return false
}

// AuthMessage monta o handshake correspondente à identidade.
func (id Identity) AuthMessage() AuthMessage {
	msg := AuthMessage{Type: MessageTypeAuth, UserType: id.UserType}
	if id.UserType == UserTypeDoctor {
		if id.DoctorID != 0 {
			msg.DoctorID = strconv.FormatUint(uint64(id.DoctorID), 10)
		}
	} else {
		msg.PatientID = id.PatientEmail
	}
	return msg
}

// ======================================================
// Reconciler — cache local eventualmente consistente
// ======================================================

// resyncTimeout limita o refetch disparado de dentro do dispatch.
const resyncTimeout = 10 * time.Second

// FetchFunc busca o estado completo no servidor (refetch).
type FetchFunc func(ctx context.Context) ([]AppointmentRecord, error)

// NotifyFunc recebe eventos relevantes para a identidade conectada.
type NotifyFunc func(eventType string, rec AppointmentRecord)

// Reconciler aplica eventos ao cache local de consultas, chaveado por
// id. O cache nunca é autoritativo: em qualquer ambiguidade a saída é
// um resync completo, nunca um rollback manual.
type Reconciler struct {
	mu       sync.Mutex
	byID     map[uint]AppointmentRecord
	identity Identity
	fetch    FetchFunc
	notify   NotifyFunc
}

func NewReconciler(identity Identity, fetch FetchFunc, notify NotifyFunc) *Reconciler {
	return &Reconciler{
		byID:     make(map[uint]AppointmentRecord),
		identity: identity,
		fetch:    fetch,
		notify:   notify,
	}
}

// Bind inscreve o reconciler nos eventos de consulta e devolve a
// função que desfaz as inscrições.
func (r *Reconciler) Bind(d *Dispatcher) func() {
	unsubCreated := d.Subscribe(EventAppointmentCreated, r.handleCreated)
	unsubUpdated := d.Subscribe(EventAppointmentUpdated, r.handleUpdated)

	return func() {
		unsubCreated()
		unsubUpdated()
	}
}

func (r *Reconciler) handleCreated(ev Event) {
	rec, ok := decodeRecord(ev)
	if !ok {
		return
	}

	r.mu.Lock()
	_, exists := r.byID[rec.ID]
	if !exists {
		r.byID[rec.ID] = rec
	}
	r.mu.Unlock()

	// inserção idempotente: o eco do próprio create otimista não
	// duplica nem notifica de novo
	if !exists && r.notify != nil && r.identity.Matches(rec) {
		r.notify(EventAppointmentCreated, rec)
	}
}

func (r *Reconciler) handleUpdated(ev Event) {
	rec, ok := decodeRecord(ev)
	if !ok {
		return
	}

	r.mu.Lock()
	_, exists := r.byID[rec.ID]
	if exists {
		r.byID[rec.ID] = rec
	}
	r.mu.Unlock()

	if !exists {
		// update para id desconhecido: cache defasado, refaz tudo.
		// O dispatch é síncrono com o readLoop da conexão, então o
		// resync tem prazo: um servidor travado não pode congelar a
		// entrega de eventos.
		log.Printf("livesync: update para consulta desconhecida %d, resync", rec.ID)

		ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
		defer cancel()

		if err := r.Resync(ctx); err != nil {
			log.Printf("livesync: resync falhou: %v", err)
		}
		return
	}

	if r.notify != nil && r.identity.Matches(rec) {
		r.notify(EventAppointmentUpdated, rec)
	}
}

func decodeRecord(ev Event) (AppointmentRecord, bool) {
	var rec AppointmentRecord
	if err := json.Unmarshal(ev.Data, &rec); err != nil {
		log.Printf("livesync: payload de %q inválido: %v", ev.Type, err)
		return AppointmentRecord{}, false
	}
	return rec, true
}

// Resync substitui o cache inteiro pelo estado do servidor.
func (r *Reconciler) Resync(ctx context.Context) error {
	if r.fetch == nil {
		return nil
	}

	recs, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	fresh := make(map[uint]AppointmentRecord, len(recs))
	for _, rec := range recs {
		fresh[rec.ID] = rec
	}

	r.mu.Lock()
	r.byID = fresh
	r.mu.Unlock()

	return nil
}

// ApplyLocal grava uma mutação otimista no cache antes da resposta
// do servidor. Se o request falhar, chame OnRequestFailed: desfazer
// na mão é inseguro com eventos intercalados.
func (r *Reconciler) ApplyLocal(rec AppointmentRecord) {
	r.mu.Lock()
	r.byID[rec.ID] = rec
	r.mu.Unlock()
}

func (r *Reconciler) OnRequestFailed(ctx context.Context) error {
	return r.Resync(ctx)
}

func (r *Reconciler) Get(id uint) (AppointmentRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	return rec, ok
}

func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Snapshot devolve o cache ordenado por data/hora (desempate por id).
func (r *Reconciler) Snapshot() []AppointmentRecord {
	r.mu.Lock()
	out := make([]AppointmentRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, rec)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})

	return out
}
