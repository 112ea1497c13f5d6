package world

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/fixmath"
	"github.com/pthm-cable/evolution/neural"
)

// Restart stream errors.
var (
	ErrBadMagic = errors.New("world: not a restart stream")
	ErrVersion  = errors.New("world: unsupported restart version")
	ErrCorrupt  = errors.New("world: corrupt restart stream")
)

const (
	codecMagic   = "EVOW"
	codecVersion = 1
)

// Save writes the full simulation state. Sensor accumulators and detector
// targets are derived state and are rebuilt on load.
func (w *World) Save(out io.Writer) error {
	if _, err := out.Write(w.encode()); err != nil {
		return fmt.Errorf("write restart: %w", err)
	}
	return nil
}

// Checksum is the SHA-256 of the encoded state.
func (w *World) Checksum() [32]byte {
	return sha256.Sum256(w.encode())
}

func (w *World) encode() []byte {
	e := encoder{buf: make([]byte, 0, 64+w.totalFood*17+w.totalCreatures*128)}
	e.buf = append(e.buf, codecMagic...)
	e.u32(codecVersion)

	c := &w.cfg
	e.u32(c.OrderX)
	e.u32(c.OrderY)
	e.u32(c.BaseRadius)
	e.u32(c.FoodEnergy)
	e.u8(c.InputLevel)
	e.u32(c.ExpSproutPerTile)
	e.u32(c.ExpSproutPerGrass)
	e.u32(c.RepressionRange)
	e.u32(c.SproutDist)
	e.u32(c.MeatDist)
	e.u32(c.MaxCreaturesPerTile)

	e.u64(w.time)
	e.u64(w.nextID)
	e.u32(uint32(w.spawnPerTile))
	e.u32(uint32(len(w.tiles)))
	for i := range w.tiles {
		t := &w.tiles[i]
		e.u64(t.rand.state)
		e.u32(uint32(t.spawnStart))
		e.u32(uint32(len(t.foods)))
		for _, f := range t.foods {
			e.u8(uint8(f.Type))
			e.u64(f.Pos.X)
			e.u64(f.Pos.Y)
		}
		e.u32(uint32(len(t.creatures)))
		for _, h := range t.creatures {
			e.creature(w.creatures.Get(h))
		}
	}
	return e.buf
}

type encoder struct {
	buf []byte
}

func (e *encoder) u8(v uint8)   { e.buf = append(e.buf, v) }
func (e *encoder) u32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) u64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

func (e *encoder) flag(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) creature(c *Creature) {
	e.u64(c.ID)
	e.u64(c.ParentID)
	e.u64(c.FatherID)
	e.u64(c.Pos.X)
	e.u64(c.Pos.Y)
	e.u32(uint32(c.Angle))
	e.u32(c.Energy)
	e.u32(c.MaxEnergy)
	e.u32(c.PassiveEnergy)
	e.u32(c.PassiveCost)
	e.u32(c.TotalLife)
	e.u32(c.MaxLife)
	e.u8(c.Flags)

	e.u32(uint32(len(c.Legs)))
	for _, l := range c.Legs {
		e.u32(l.Dist)
		e.u32(uint32(l.Angle))
	}
	e.u32(uint32(len(c.Rotators)))
	for _, r := range c.Rotators {
		e.u32(uint32(r.Delta))
	}
	e.u32(uint32(len(c.Signals)))
	for _, s := range c.Signals {
		e.u8(s.Flag)
	}
	e.u32(uint32(len(c.Stomachs)))
	for _, s := range c.Stomachs {
		e.u32(s.Capacity)
	}
	e.u32(uint32(len(c.Hides)))
	for _, h := range c.Hides {
		e.u32(h.MaxLife)
		e.u32(h.Regen)
		e.u32(h.Life)
	}
	e.u32(uint32(len(c.Eyes)))
	for _, eye := range c.Eyes {
		e.u8(eye.Flags)
		e.u32(uint32(eye.Angle))
		e.u32(uint32(eye.Delta))
		e.u32(eye.Radius)
	}
	e.u32(uint32(len(c.Radars)))
	for _, r := range c.Radars {
		e.u8(r.Flags)
		e.u32(uint32(r.Angle))
		e.u32(uint32(r.Delta))
	}
	e.u32(uint32(len(c.Claws)))
	for _, cl := range c.Claws {
		e.u32(uint32(cl.Angle))
		e.u32(uint32(cl.Delta))
		e.u32(cl.Radius)
		e.u32(cl.Damage)
		e.flag(cl.Active)
	}
	e.u32(uint32(len(c.Wombs)))
	for _, wb := range c.Wombs {
		e.u32(wb.Energy)
		e.flag(wb.Active)
	}

	e.u32(uint32(len(c.Net.Neurons)))
	for _, n := range c.Net.Neurons {
		e.u32(n.ActCost)
		e.u32(uint32(n.ActLevel))
	}
	e.u32(uint32(len(c.Net.Links)))
	for _, l := range c.Net.Links {
		e.u32(l.Input)
		e.u32(l.Output)
		e.u32(uint32(uint16(l.Weight)))
	}
	e.u32(uint32(len(c.Input)))
	e.buf = append(e.buf, c.Input...)
}

// Load decodes a restart stream into a new world. Nothing is shared with any
// existing world, so a failed load leaves callers' state untouched.
func Load(r io.Reader, opts Options) (*World, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read restart: %w", err)
	}
	d := decoder{buf: data}
	if len(data) < len(codecMagic) || string(data[:len(codecMagic)]) != codecMagic {
		return nil, ErrBadMagic
	}
	d.buf = d.buf[len(codecMagic):]
	if v := d.u32(); d.err == nil && v != codecVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}

	var cfg Config
	cfg.OrderX = d.u32()
	cfg.OrderY = d.u32()
	cfg.BaseRadius = d.u32()
	cfg.FoodEnergy = d.u32()
	cfg.InputLevel = d.u8()
	cfg.ExpSproutPerTile = d.u32()
	cfg.ExpSproutPerGrass = d.u32()
	cfg.RepressionRange = d.u32()
	cfg.SproutDist = d.u32()
	cfg.MeatDist = d.u32()
	cfg.MaxCreaturesPerTile = d.u32()
	if d.err != nil {
		return nil, d.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	cfg.calcDerived()

	w := newWorld(cfg, opts)
	w.time = d.u64()
	w.nextID = d.u64()
	w.spawnPerTile = int(d.u32())
	if n := d.u32(); d.err == nil && int(n) != len(w.tiles) {
		w.Close()
		return nil, fmt.Errorf("%w: %d tiles for a %dx%d grid", ErrCorrupt, n, 1<<cfg.OrderX, 1<<cfg.OrderY)
	}
	if err := w.decodeTiles(&d); err != nil {
		w.Close()
		return nil, err
	}
	if len(d.buf) != 0 {
		w.Close()
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(d.buf))
	}
	if err := w.CheckInvariants(); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	w.settle()
	return w, nil
}

func (w *World) decodeTiles(d *decoder) error {
	for i := range w.tiles {
		t := &w.tiles[i]
		t.rand.state = d.u64()
		t.spawnStart = int(d.u32())
		nf := d.count(17)
		t.foods = make([]Food, 0, nf)
		for range nf {
			typ := FoodType(d.u8())
			pos := Position{X: d.u64(), Y: d.u64()}
			if d.err == nil && typ > Meat {
				return fmt.Errorf("%w: tile %d food type %d", ErrCorrupt, i, typ)
			}
			t.foods = append(t.foods, newFood(&w.cfg, typ, pos))
		}
		if d.err == nil && t.spawnStart > len(t.foods) {
			return fmt.Errorf("%w: tile %d spawn start %d beyond %d foods", ErrCorrupt, i, t.spawnStart, len(t.foods))
		}
		w.totalFood += len(t.foods)

		nc := d.count(80)
		for range nc {
			c, err := d.creature()
			if err != nil {
				return err
			}
			w.insert(i, c)
		}
		if d.err != nil {
			return d.err
		}
	}
	return d.err
}

type decoder struct {
	buf []byte
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.buf) < n {
		d.err = fmt.Errorf("%w: %w", ErrCorrupt, io.ErrUnexpectedEOF)
		d.buf = nil
		return nil
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b
}

func (d *decoder) u8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) u64() uint64 {
	if b := d.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (d *decoder) flag() bool {
	switch v := d.u8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		if d.err == nil {
			d.err = fmt.Errorf("%w: flag byte %d", ErrCorrupt, v)
		}
		return false
	}
}

// count reads a length prefix for records of at least size bytes and
// rejects lengths the remaining input cannot hold.
func (d *decoder) count(size int) int {
	n := d.u32()
	if d.err != nil {
		return 0
	}
	if uint64(n)*uint64(size) > uint64(len(d.buf)) {
		d.err = fmt.Errorf("%w: %w", ErrCorrupt, io.ErrUnexpectedEOF)
		return 0
	}
	return int(n)
}

func (d *decoder) creature() (*Creature, error) {
	c := &Creature{}
	c.ID = d.u64()
	c.ParentID = d.u64()
	c.FatherID = d.u64()
	c.Pos = Position{X: d.u64(), Y: d.u64()}
	c.Angle = fixmath.Angle(d.u32())
	c.Energy = d.u32()
	c.MaxEnergy = d.u32()
	c.PassiveEnergy = d.u32()
	c.PassiveCost = d.u32()
	c.TotalLife = d.u32()
	c.MaxLife = d.u32()
	c.Flags = d.u8()

	b := &c.Body
	b.Legs = make([]components.Leg, d.count(8))
	for i := range b.Legs {
		b.Legs[i] = components.Leg{Dist: d.u32(), Angle: fixmath.Angle(d.u32())}
	}
	b.Rotators = make([]components.Rotator, d.count(4))
	for i := range b.Rotators {
		b.Rotators[i].Delta = fixmath.Angle(d.u32())
	}
	b.Signals = make([]components.Signal, d.count(1))
	for i := range b.Signals {
		b.Signals[i].Flag = d.u8()
	}
	b.Stomachs = make([]components.Stomach, d.count(4))
	for i := range b.Stomachs {
		b.Stomachs[i].Capacity = d.u32()
	}
	b.Hides = make([]components.Hide, d.count(12))
	for i := range b.Hides {
		b.Hides[i] = components.Hide{MaxLife: d.u32(), Regen: d.u32(), Life: d.u32()}
	}
	b.Eyes = make([]components.Eye, d.count(13))
	for i := range b.Eyes {
		b.Eyes[i] = components.Eye{
			Flags:  d.u8(),
			Angle:  fixmath.Angle(d.u32()),
			Delta:  fixmath.Angle(d.u32()),
			Radius: d.u32(),
		}
	}
	b.Radars = make([]components.Radar, d.count(9))
	for i := range b.Radars {
		b.Radars[i] = components.Radar{
			Flags: d.u8(),
			Angle: fixmath.Angle(d.u32()),
			Delta: fixmath.Angle(d.u32()),
			MinR2: fixmath.MaxR2,
		}
	}
	b.Claws = make([]components.Claw, d.count(17))
	for i := range b.Claws {
		b.Claws[i] = components.Claw{
			Angle:  fixmath.Angle(d.u32()),
			Delta:  fixmath.Angle(d.u32()),
			Radius: d.u32(),
			Damage: d.u32(),
			Active: d.flag(),
		}
	}
	b.Wombs = make([]components.Womb, d.count(5))
	for i := range b.Wombs {
		b.Wombs[i] = components.Womb{Energy: d.u32(), Active: d.flag()}
	}

	b.Net.Neurons = make([]neural.Neuron, d.count(8))
	for i := range b.Net.Neurons {
		b.Net.Neurons[i] = neural.Neuron{ActCost: d.u32(), ActLevel: int32(d.u32())}
	}
	b.Net.Links = make([]neural.Link, d.count(12))
	for i := range b.Net.Links {
		b.Net.Links[i] = neural.Link{Input: d.u32(), Output: d.u32(), Weight: int16(d.u32())}
	}
	c.Input = append([]uint8(nil), d.take(d.count(1))...)
	if d.err != nil {
		return nil, d.err
	}

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: creature %d: %w", ErrCorrupt, c.ID, err)
	}
	if len(c.Input) != c.InputSize() {
		return nil, fmt.Errorf("%w: creature %d input buffer %d, want %d", ErrCorrupt, c.ID, len(c.Input), c.InputSize())
	}
	return c, nil
}
