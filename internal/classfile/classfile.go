/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classfile decodes the subset of JVMS §4 the rest of the core
// needs to exercise class loading and the interpreter: the constant
// pool, access flags, fields, methods, the Code attribute and its
// exception table, and BootstrapMethods. It does not verify bytecode or
// perform any linking -- that is internal/classloader's job, operating
// on the Parsed value this package returns.
package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Constant pool tags (JVMS Table 4.4-A).
const (
	TagUtf8               = 1
	TagInteger             = 3
	TagFloat               = 4
	TagLong                = 5
	TagDouble              = 6
	TagClass               = 7
	TagString              = 8
	TagFieldref            = 9
	TagMethodref           = 10
	TagInterfaceMethodref = 11
	TagNameAndType         = 12
	TagMethodHandle        = 15
	TagMethodType          = 16
	TagDynamic             = 17
	TagInvokeDynamic       = 18
	TagModule              = 19
	TagPackage             = 20
)

// CPEntry is one constant-pool slot. Which fields are meaningful depends
// on Tag; Long and Double entries occupy the slot after them with an
// empty CPEntry{Tag: 0}, per JVMS 4.4.5's "in retrospect making 8-byte
// constants take two entries in the constant_pool table was a poor
// choice" footnote -- Parsed.ConstantPool preserves that indexing
// exactly so CP index arithmetic elsewhere in the core needs no special
// casing.
type CPEntry struct {
	Tag byte

	// TagUtf8
	Utf8 string

	// TagInteger / TagFloat / TagLong / TagDouble
	IntVal    int32
	FloatVal  float32
	LongVal   int64
	DoubleVal float64

	// TagClass / TagString / TagModule / TagPackage: index into ConstantPool of a Utf8
	NameIndex uint16

	// TagFieldref / TagMethodref / TagInterfaceMethodref
	ClassIndex       uint16
	NameAndTypeIndex uint16

	// TagNameAndType
	DescriptorIndex uint16

	// TagMethodHandle
	RefKind  byte
	RefIndex uint16

	// TagMethodType
	DescriptorOnlyIndex uint16

	// TagDynamic / TagInvokeDynamic
	BootstrapMethodAttrIndex uint16
}

// ExceptionTableEntry is one row of a Code attribute's exception table.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 means catch-all (finally)
}

// CodeAttr is a decoded Code attribute (JVMS 4.7.3).
type CodeAttr struct {
	MaxStack   uint16
	MaxLocals  uint16
	Code       []byte
	Exceptions []ExceptionTableEntry
}

// FieldInfo/MethodInfo mirror JVMS 4.5/4.6, minus attributes the core
// doesn't consume (synthetic flags, signatures, annotations); the
// decoder skips those and does not retain their bytes.
type FieldInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	ConstantValue   uint16 // CP index of a ConstantValue attribute, 0 if none
}

type MethodInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Code            *CodeAttr // nil for abstract/native methods
}

// BootstrapMethod is one entry of the BootstrapMethods attribute (JVMS
// 4.7.23), consumed when resolving an invokedynamic call site.
type BootstrapMethod struct {
	MethodRef uint16
	Arguments []uint16
}

// Parsed is the decoded form of a .class file, shaped the way spec.md
// §3's "Type" record expects its constant-pool-derived fields to arrive.
type Parsed struct {
	MinorVersion uint16
	MajorVersion uint16

	ConstantPool []CPEntry // index 0 unused, per JVMS

	AccessFlags uint16
	ThisClass   uint16 // CP index -> TagClass
	SuperClass  uint16 // CP index -> TagClass, 0 for java/lang/Object

	Interfaces []uint16 // CP indices -> TagClass

	Fields  []FieldInfo
	Methods []MethodInfo

	SourceFile       string
	Bootstraps       []BootstrapMethod
	ModuleName       string
	Deprecated       bool
}

const magic = 0xCAFEBABE

type reader struct {
	b    []byte
	pos  int
	pool []CPEntry // set once the constant pool is known, for attribute-name lookups
}

func (r *reader) u1() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, io_EOF()
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u2() (uint16, error) {
	if r.pos+2 > len(r.b) {
		return 0, io_EOF()
	}
	v := binary.BigEndian.Uint16(r.b[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if r.pos+4 > len(r.b) {
		return 0, io_EOF()
	}
	v := binary.BigEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.b) {
		return nil, io_EOF()
	}
	v := r.b[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

func io_EOF() error { return fmt.Errorf("classfile: unexpected end of data") }

// Decode parses raw into a Parsed classfile. It returns an error for any
// malformed section; it does not validate JVMS semantic constraints
// (that belongs to internal/classloader's linking pass).
func Decode(raw []byte) (*Parsed, error) {
	r := &reader{b: raw}

	got, err := r.u4()
	if err != nil {
		return nil, err
	}
	if got != magic {
		return nil, fmt.Errorf("classfile: bad magic %#x", got)
	}

	p := &Parsed{}
	if p.MinorVersion, err = r.u2(); err != nil {
		return nil, err
	}
	if p.MajorVersion, err = r.u2(); err != nil {
		return nil, err
	}

	if err := decodeConstantPool(r, p); err != nil {
		return nil, err
	}
	r.pool = p.ConstantPool

	if p.AccessFlags, err = r.u2(); err != nil {
		return nil, err
	}
	if p.ThisClass, err = r.u2(); err != nil {
		return nil, err
	}
	if p.SuperClass, err = r.u2(); err != nil {
		return nil, err
	}

	ifaceCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	p.Interfaces = make([]uint16, ifaceCount)
	for i := range p.Interfaces {
		if p.Interfaces[i], err = r.u2(); err != nil {
			return nil, err
		}
	}

	if p.Fields, err = decodeFields(r); err != nil {
		return nil, err
	}
	if p.Methods, err = decodeMethods(r, p); err != nil {
		return nil, err
	}
	if err := decodeClassAttributes(r, p); err != nil {
		return nil, err
	}

	return p, nil
}

func decodeConstantPool(r *reader, p *Parsed) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	p.ConstantPool = make([]CPEntry, count)

	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return err
		}
		e := CPEntry{Tag: tag}
		switch tag {
		case TagUtf8:
			length, err := r.u2()
			if err != nil {
				return err
			}
			b, err := r.bytes(int(length))
			if err != nil {
				return err
			}
			e.Utf8 = string(b)
		case TagInteger:
			v, err := r.u4()
			if err != nil {
				return err
			}
			e.IntVal = int32(v)
		case TagFloat:
			v, err := r.u4()
			if err != nil {
				return err
			}
			e.FloatVal = bitsToFloat32(v)
		case TagLong:
			hi, err := r.u4()
			if err != nil {
				return err
			}
			lo, err := r.u4()
			if err != nil {
				return err
			}
			e.LongVal = int64(hi)<<32 | int64(lo)
			p.ConstantPool[i] = e
			i++ // long/double occupy two CP slots (JVMS 4.4.5)
			continue
		case TagDouble:
			hi, err := r.u4()
			if err != nil {
				return err
			}
			lo, err := r.u4()
			if err != nil {
				return err
			}
			e.DoubleVal = bitsToFloat64(uint64(hi)<<32 | uint64(lo))
			p.ConstantPool[i] = e
			i++
			continue
		case TagClass, TagString, TagModule, TagPackage:
			if e.NameIndex, err = r.u2(); err != nil {
				return err
			}
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			if e.ClassIndex, err = r.u2(); err != nil {
				return err
			}
			if e.NameAndTypeIndex, err = r.u2(); err != nil {
				return err
			}
		case TagNameAndType:
			if e.NameIndex, err = r.u2(); err != nil {
				return err
			}
			if e.DescriptorIndex, err = r.u2(); err != nil {
				return err
			}
		case TagMethodHandle:
			if e.RefKind, err = r.u1(); err != nil {
				return err
			}
			if e.RefIndex, err = r.u2(); err != nil {
				return err
			}
		case TagMethodType:
			if e.DescriptorOnlyIndex, err = r.u2(); err != nil {
				return err
			}
		case TagDynamic, TagInvokeDynamic:
			if e.BootstrapMethodAttrIndex, err = r.u2(); err != nil {
				return err
			}
			if e.NameAndTypeIndex, err = r.u2(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("classfile: unknown constant pool tag %d at index %d", tag, i)
		}
		p.ConstantPool[i] = e
	}
	return nil
}

func decodeFields(r *reader) ([]FieldInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	fields := make([]FieldInfo, count)
	for i := range fields {
		f := FieldInfo{}
		if f.AccessFlags, err = r.u2(); err != nil {
			return nil, err
		}
		if f.NameIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if f.DescriptorIndex, err = r.u2(); err != nil {
			return nil, err
		}
		attrCount, err := r.u2()
		if err != nil {
			return nil, err
		}
		for a := uint16(0); a < attrCount; a++ {
			name, length, data, err := readAttribute(r)
			if err != nil {
				return nil, err
			}
			if name == "ConstantValue" && len(data) >= 2 {
				f.ConstantValue = binary.BigEndian.Uint16(data)
			}
			_ = length
		}
		fields[i] = f
	}
	return fields, nil
}

func decodeMethods(r *reader, p *Parsed) ([]MethodInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	methods := make([]MethodInfo, count)
	for i := range methods {
		m := MethodInfo{}
		if m.AccessFlags, err = r.u2(); err != nil {
			return nil, err
		}
		if m.NameIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if m.DescriptorIndex, err = r.u2(); err != nil {
			return nil, err
		}
		attrCount, err := r.u2()
		if err != nil {
			return nil, err
		}
		for a := uint16(0); a < attrCount; a++ {
			name, _, data, err := readAttribute(r)
			if err != nil {
				return nil, err
			}
			if name == "Code" {
				code, err := decodeCodeAttribute(data)
				if err != nil {
					return nil, err
				}
				m.Code = code
			}
		}
		methods[i] = m
	}
	return methods, nil
}

func decodeClassAttributes(r *reader, p *Parsed) error {
	attrCount, err := r.u2()
	if err != nil {
		return err
	}
	for a := uint16(0); a < attrCount; a++ {
		name, _, data, err := readAttribute(r)
		if err != nil {
			return err
		}
		switch name {
		case "SourceFile":
			if len(data) >= 2 {
				idx := binary.BigEndian.Uint16(data)
				if int(idx) < len(p.ConstantPool) {
					p.SourceFile = p.ConstantPool[idx].Utf8
				}
			}
		case "Deprecated":
			p.Deprecated = true
		case "Module":
			if len(data) >= 2 {
				idx := binary.BigEndian.Uint16(data)
				if int(idx) < len(p.ConstantPool) {
					nameIdx := p.ConstantPool[idx].NameIndex
					if int(nameIdx) < len(p.ConstantPool) {
						p.ModuleName = p.ConstantPool[nameIdx].Utf8
					}
				}
			}
		case "BootstrapMethods":
			bms, err := decodeBootstrapMethods(data)
			if err != nil {
				return err
			}
			p.Bootstraps = bms
		}
	}
	return nil
}

// readAttribute reads one generic attribute_info entry; the constant
// pool name lookup is deferred to the caller since the attribute name
// index refers to the pool built by decodeConstantPool.
func readAttribute(r *reader) (name string, length uint32, data []byte, err error) {
	nameIndex, err := r.u2()
	if err != nil {
		return "", 0, nil, err
	}
	length, err = r.u4()
	if err != nil {
		return "", 0, nil, err
	}
	data, err = r.bytes(int(length))
	if err != nil {
		return "", 0, nil, err
	}
	if r.pool != nil && int(nameIndex) < len(r.pool) {
		name = r.pool[nameIndex].Utf8
	}
	return name, length, data, nil
}

func decodeCodeAttribute(data []byte) (*CodeAttr, error) {
	r := &reader{b: data}
	c := &CodeAttr{}
	var err error
	if c.MaxStack, err = r.u2(); err != nil {
		return nil, err
	}
	if c.MaxLocals, err = r.u2(); err != nil {
		return nil, err
	}
	codeLen, err := r.u4()
	if err != nil {
		return nil, err
	}
	if c.Code, err = r.bytes(int(codeLen)); err != nil {
		return nil, err
	}
	excCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	c.Exceptions = make([]ExceptionTableEntry, excCount)
	for i := range c.Exceptions {
		e := ExceptionTableEntry{}
		if e.StartPC, err = r.u2(); err != nil {
			return nil, err
		}
		if e.EndPC, err = r.u2(); err != nil {
			return nil, err
		}
		if e.HandlerPC, err = r.u2(); err != nil {
			return nil, err
		}
		if e.CatchType, err = r.u2(); err != nil {
			return nil, err
		}
		c.Exceptions[i] = e
	}
	// remaining code attributes (LineNumberTable, LocalVariableTable,
	// StackMapTable) are not consumed by this core; skip over them.
	attrCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	for a := uint16(0); a < attrCount; a++ {
		if _, _, _, err := readAttribute(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func bitsToFloat32(bits uint32) float32 { return math.Float32frombits(bits) }

func bitsToFloat64(bits uint64) float64 { return math.Float64frombits(bits) }

func decodeBootstrapMethods(data []byte) ([]BootstrapMethod, error) {
	r := &reader{b: data}
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	bms := make([]BootstrapMethod, count)
	for i := range bms {
		bm := BootstrapMethod{}
		if bm.MethodRef, err = r.u2(); err != nil {
			return nil, err
		}
		argCount, err := r.u2()
		if err != nil {
			return nil, err
		}
		bm.Arguments = make([]uint16, argCount)
		for a := range bm.Arguments {
			if bm.Arguments[a], err = r.u2(); err != nil {
				return nil, err
			}
		}
		bms[i] = bm
	}
	return bms, nil
}
