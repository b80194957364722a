/*
 * corevm - a Java Virtual Machine core runtime
 * Copyright (c) 2024 corevm authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"context"
	"encoding/binary"
	"math"

	"corevm/internal/classloader"
	"corevm/internal/excnames"
	"corevm/internal/frames"
	"corevm/internal/object"
	"corevm/internal/opcodes"
	"corevm/internal/synch"
	"corevm/internal/thread"
)

func init() {
	frames.RunJavaFrame = RunFrame
	classloader.VerifyMethodStackDepth = VerifyStackDepth
}

// RunFrame executes fs's top frame from its current PC until it
// returns or an exception escapes unhandled, dispatching one opcode
// per iteration (spec.md §4.6's "threaded-dispatch interpreter").
// frames.Trampoline installs this as frames.RunJavaFrame so frames
// itself never imports interp.
func RunFrame(fs *frames.FrameStack) error {
	f := frames.PeekFrame(fs)
	if f == nil {
		return nil
	}
	th, _ := thread.Find(fs.ThreadID)

	for {
		if len(f.Meth) == 0 {
			return nil
		}
		if th != nil {
			if err := th.ThreadCheck(); err != nil {
				if recovered, ok := tryHandle(f, err); ok {
					continue
				} else {
					_ = recovered
					return err
				}
			}
		}
		if f.PC >= len(f.Meth) {
			return nil
		}

		done, err := step(th, fs, f)
		if err != nil {
			if _, ok := tryHandle(f, err); ok {
				continue
			}
			return err
		}
		if done {
			return nil
		}
	}
}

// tryHandle searches f's exception table for a handler covering the
// PC the error was thrown at (f.PC, already advanced past the opcode)
// whose CatchType is null (finally) or a supertype of the thrown
// exception (JVMS 4.10.2.4), truncates the operand stack to depth 1,
// and pushes the exception, per spec.md §4.6's "Trap table". Returns
// ok=false if no handler matches, in which case the caller unwinds
// this frame.
func tryHandle(f *frames.Frame, err error) (error, bool) {
	vmErr, ok := err.(*excnames.VMError)
	if !ok || f.Method == nil || f.Method.Code == nil || f.Method.Owner == nil {
		return err, false
	}
	throwPC := f.PC - 1
	for _, ex := range f.Method.Code.Exceptions {
		if throwPC < int(ex.StartPC) || throwPC >= int(ex.EndPC) {
			continue
		}
		if ex.CatchType != 0 && !catchTypeMatches(f, ex.CatchType, vmErr.Name) {
			continue
		}
		f.TOS = 0
		f.PushRef(vmErr)
		f.PC = int(ex.HandlerPC)
		return nil, true
	}
	return err, false
}

// catchTypeMatches resolves a non-null CatchType constant-pool index
// against the internal-form name of the exception being thrown,
// matching only when the thrown type is the catch type itself or one
// of its subtypes. Either side failing to resolve means no handler
// match -- an unresolved exception class can't legitimately catch
// anything.
func catchTypeMatches(f *frames.Frame, catchType uint16, thrownName string) bool {
	v, ok := f.Method.Owner.FetchCPEntry(catchType)
	if !ok {
		return false
	}
	catch, ok := v.(*classloader.Type)
	if !ok || catch == nil {
		return false
	}
	thrown, err := f.Method.Owner.Loader.LoadByNameOnly(thrownName)
	if err != nil {
		return false
	}
	return thrown == catch || thrown.IsSubtypeOf(catch)
}

// step executes exactly one instruction, returning done=true if the
// frame has returned.
func step(th *thread.ExecThread, fs *frames.FrameStack, f *frames.Frame) (bool, error) {
	op := opcodes.Opcode(f.Meth[f.PC])
	f.PC++

	switch op {
	case opcodes.NOP:
		return false, nil

	case opcodes.ACONST_NULL:
		f.PushRef(nil)
		return false, nil

	case opcodes.ICONST_M1, opcodes.ICONST_0, opcodes.ICONST_1, opcodes.ICONST_2,
		opcodes.ICONST_3, opcodes.ICONST_4, opcodes.ICONST_5:
		f.Push(int64(int(op) - int(opcodes.ICONST_0)))
		return false, nil

	case opcodes.LCONST_0, opcodes.LCONST_1:
		f.Push(int64(int(op) - int(opcodes.LCONST_0)))
		return false, nil

	case opcodes.FCONST_0, opcodes.FCONST_1, opcodes.FCONST_2:
		f.Push(int64(math.Float32bits(float32(int(op) - int(opcodes.FCONST_0)))))
		return false, nil

	case opcodes.DCONST_0, opcodes.DCONST_1:
		f.Push(int64(math.Float64bits(float64(int(op) - int(opcodes.DCONST_0)))))
		return false, nil

	case opcodes.BIPUSH:
		v := int64(int8(f.Meth[f.PC]))
		f.PC++
		f.Push(v)
		return false, nil

	case opcodes.SIPUSH:
		v := int64(int16(binary.BigEndian.Uint16(f.Meth[f.PC:])))
		f.PC += 2
		f.Push(v)
		return false, nil

	case opcodes.LDC:
		idx := uint16(f.Meth[f.PC])
		f.PC++
		return false, pushConstant(f, idx)

	case opcodes.LDC_W, opcodes.LDC2_W:
		idx := binary.BigEndian.Uint16(f.Meth[f.PC:])
		f.PC += 2
		return false, pushConstant(f, idx)

	case opcodes.ILOAD, opcodes.FLOAD:
		i := int(f.Meth[f.PC])
		f.PC++
		f.Push(f.Locals[i])
		return false, nil
	case opcodes.LLOAD, opcodes.DLOAD:
		i := int(f.Meth[f.PC])
		f.PC++
		f.Push(f.Locals[i])
		return false, nil
	case opcodes.ALOAD:
		i := int(f.Meth[f.PC])
		f.PC++
		f.PushRef(f.LocalRefs[i])
		return false, nil

	case opcodes.ILOAD_0, opcodes.ILOAD_1, opcodes.ILOAD_2, opcodes.ILOAD_3:
		f.Push(f.Locals[int(op-opcodes.ILOAD_0)])
		return false, nil
	case opcodes.LLOAD_0, opcodes.LLOAD_1, opcodes.LLOAD_2, opcodes.LLOAD_3:
		f.Push(f.Locals[int(op-opcodes.LLOAD_0)])
		return false, nil
	case opcodes.ALOAD_0, opcodes.ALOAD_1, opcodes.ALOAD_2, opcodes.ALOAD_3:
		i := int(op - opcodes.ALOAD_0)
		f.PushRef(f.LocalRefs[i])
		return false, nil

	case opcodes.ISTORE, opcodes.FSTORE:
		i := int(f.Meth[f.PC])
		f.PC++
		f.Locals[i] = f.Pop()
		return false, nil
	case opcodes.LSTORE, opcodes.DSTORE:
		i := int(f.Meth[f.PC])
		f.PC++
		f.Locals[i] = f.Pop()
		return false, nil
	case opcodes.ASTORE:
		i := int(f.Meth[f.PC])
		f.PC++
		f.LocalRefs[i] = f.PopRef()
		return false, nil

	case opcodes.ISTORE_0, opcodes.ISTORE_1, opcodes.ISTORE_2, opcodes.ISTORE_3:
		f.Locals[int(op-opcodes.ISTORE_0)] = f.Pop()
		return false, nil
	case opcodes.LSTORE_0, opcodes.LSTORE_1, opcodes.LSTORE_2, opcodes.LSTORE_3:
		f.Locals[int(op-opcodes.LSTORE_0)] = f.Pop()
		return false, nil
	case opcodes.ASTORE_0, opcodes.ASTORE_1, opcodes.ASTORE_2, opcodes.ASTORE_3:
		i := int(op - opcodes.ASTORE_0)
		f.LocalRefs[i] = f.PopRef()
		return false, nil

	case opcodes.POP:
		f.TOS--
		return false, nil
	case opcodes.POP2:
		f.TOS -= 2
		return false, nil
	case opcodes.DUP:
		v := f.OpStack[f.TOS]
		f.Push(v)
		return false, nil
	case opcodes.DUP_X1:
		a := f.Pop()
		b := f.Pop()
		f.Push(a)
		f.Push(b)
		f.Push(a)
		return false, nil
	case opcodes.DUP2:
		a := f.OpStack[f.TOS]
		b := f.OpStack[f.TOS-1]
		f.Push(b)
		f.Push(a)
		return false, nil
	case opcodes.SWAP:
		a := f.Pop()
		b := f.Pop()
		f.Push(a)
		f.Push(b)
		return false, nil

	case opcodes.IADD:
		b, a := f.Pop(), f.Pop()
		f.Push(int64(int32(a) + int32(b)))
		return false, nil
	case opcodes.LADD:
		b, a := f.Pop(), f.Pop()
		f.Push(a + b)
		return false, nil
	case opcodes.ISUB:
		b, a := f.Pop(), f.Pop()
		f.Push(int64(int32(a) - int32(b)))
		return false, nil
	case opcodes.LSUB:
		b, a := f.Pop(), f.Pop()
		f.Push(a - b)
		return false, nil
	case opcodes.IMUL:
		b, a := f.Pop(), f.Pop()
		f.Push(int64(int32(a) * int32(b)))
		return false, nil
	case opcodes.LMUL:
		b, a := f.Pop(), f.Pop()
		f.Push(a * b)
		return false, nil

	case opcodes.IDIV:
		b, a := int32(f.Pop()), int32(f.Pop())
		if b == 0 {
			return false, excnames.NewVMError(excnames.ArithmeticException, "/ by zero")
		}
		if a == math.MinInt32 && b == -1 {
			f.Push(int64(math.MinInt32))
			return false, nil
		}
		f.Push(int64(a / b))
		return false, nil
	case opcodes.LDIV:
		b, a := f.Pop(), f.Pop()
		if b == 0 {
			return false, excnames.NewVMError(excnames.ArithmeticException, "/ by zero")
		}
		if a == math.MinInt64 && b == -1 {
			f.Push(math.MinInt64)
			return false, nil
		}
		f.Push(a / b)
		return false, nil
	case opcodes.IREM:
		b, a := int32(f.Pop()), int32(f.Pop())
		if b == 0 {
			return false, excnames.NewVMError(excnames.ArithmeticException, "/ by zero")
		}
		if a == math.MinInt32 && b == -1 {
			f.Push(0)
			return false, nil
		}
		f.Push(int64(a % b))
		return false, nil
	case opcodes.LREM:
		b, a := f.Pop(), f.Pop()
		if b == 0 {
			return false, excnames.NewVMError(excnames.ArithmeticException, "/ by zero")
		}
		if a == math.MinInt64 && b == -1 {
			f.Push(0)
			return false, nil
		}
		f.Push(a % b)
		return false, nil

	case opcodes.INEG:
		f.Push(int64(-int32(f.Pop())))
		return false, nil
	case opcodes.LNEG:
		f.Push(-f.Pop())
		return false, nil

	case opcodes.ISHL:
		b, a := int32(f.Pop()), int32(f.Pop())
		f.Push(int64(a << (uint32(b) & 0x1F)))
		return false, nil
	case opcodes.ISHR:
		b, a := int32(f.Pop()), int32(f.Pop())
		f.Push(int64(a >> (uint32(b) & 0x1F)))
		return false, nil
	case opcodes.IUSHR:
		b, a := uint32(f.Pop()), uint32(f.Pop())
		f.Push(int64(int32(a >> (b & 0x1F))))
		return false, nil
	case opcodes.LSHL:
		b, a := f.Pop(), f.Pop()
		f.Push(a << (uint64(b) & 0x3F))
		return false, nil
	case opcodes.LSHR:
		b, a := f.Pop(), f.Pop()
		f.Push(a >> (uint64(b) & 0x3F))
		return false, nil
	case opcodes.LUSHR:
		b, a := f.Pop(), f.Pop()
		f.Push(int64(uint64(a) >> (uint64(b) & 0x3F)))
		return false, nil

	case opcodes.IAND:
		b, a := f.Pop(), f.Pop()
		f.Push(a & b)
		return false, nil
	case opcodes.LAND:
		b, a := f.Pop(), f.Pop()
		f.Push(a & b)
		return false, nil
	case opcodes.IOR, opcodes.LOR:
		b, a := f.Pop(), f.Pop()
		f.Push(a | b)
		return false, nil
	case opcodes.IXOR, opcodes.LXOR:
		b, a := f.Pop(), f.Pop()
		f.Push(a ^ b)
		return false, nil

	case opcodes.IINC:
		i := int(f.Meth[f.PC])
		delta := int8(f.Meth[f.PC+1])
		f.PC += 2
		f.Locals[i] = int64(int32(f.Locals[i]) + int32(delta))
		return false, nil

	case opcodes.FADD, opcodes.FSUB, opcodes.FMUL, opcodes.FDIV, opcodes.FREM:
		return false, execFloatMath(f, op)
	case opcodes.DADD, opcodes.DSUB, opcodes.DMUL, opcodes.DDIV, opcodes.DREM:
		return false, execDoubleMath(f, op)
	case opcodes.FNEG:
		f.Push(int64(math.Float32bits(-math.Float32frombits(uint32(f.Pop())))))
		return false, nil
	case opcodes.DNEG:
		f.Push(int64(math.Float64bits(-math.Float64frombits(uint64(f.Pop())))))
		return false, nil

	case opcodes.I2L, opcodes.I2F, opcodes.I2D, opcodes.L2I, opcodes.L2F, opcodes.L2D,
		opcodes.F2I, opcodes.F2L, opcodes.F2D, opcodes.D2I, opcodes.D2L, opcodes.D2F,
		opcodes.I2B, opcodes.I2C, opcodes.I2S:
		execConvert(f, op)
		return false, nil

	case opcodes.LCMP:
		b, a := f.Pop(), f.Pop()
		switch {
		case a > b:
			f.Push(1)
		case a < b:
			f.Push(-1)
		default:
			f.Push(0)
		}
		return false, nil
	case opcodes.FCMPL, opcodes.FCMPG:
		execFloatCompare(f, op)
		return false, nil
	case opcodes.DCMPL, opcodes.DCMPG:
		execDoubleCompare(f, op)
		return false, nil

	case opcodes.IFEQ, opcodes.IFNE, opcodes.IFLT, opcodes.IFGE, opcodes.IFGT, opcodes.IFLE:
		v := int32(f.Pop())
		execIf(f, op, v, 0)
		return false, nil
	case opcodes.IF_ICMPEQ, opcodes.IF_ICMPNE, opcodes.IF_ICMPLT, opcodes.IF_ICMPGE,
		opcodes.IF_ICMPGT, opcodes.IF_ICMPLE:
		b, a := int32(f.Pop()), int32(f.Pop())
		execIfICmp(f, op, a, b)
		return false, nil
	case opcodes.IF_ACMPEQ, opcodes.IF_ACMPNE:
		b, a := f.PopRef(), f.PopRef()
		eq := a == b
		if op == opcodes.IF_ACMPEQ && eq || op == opcodes.IF_ACMPNE && !eq {
			branch(f)
		} else {
			f.PC += 2
		}
		return false, nil
	case opcodes.IFNULL, opcodes.IFNONNULL:
		v := f.PopRef()
		isNull := v == nil
		if op == opcodes.IFNULL && isNull || op == opcodes.IFNONNULL && !isNull {
			branch(f)
		} else {
			f.PC += 2
		}
		return false, nil
	case opcodes.GOTO:
		branch(f)
		return false, nil
	case opcodes.GOTO_W:
		off := int32(binary.BigEndian.Uint32(f.Meth[f.PC:]))
		f.PC = f.PC - 1 + int(off)
		return false, nil

	case opcodes.IRETURN:
		f.RetKind, f.RetVal, f.Returned = frames.RetInt, f.Pop(), true
		return true, nil
	case opcodes.FRETURN:
		f.RetKind, f.RetVal, f.Returned = frames.RetFloat, f.Pop(), true
		return true, nil
	case opcodes.LRETURN:
		f.RetKind, f.RetVal, f.Returned = frames.RetLong, f.Pop(), true
		return true, nil
	case opcodes.DRETURN:
		f.RetKind, f.RetVal, f.Returned = frames.RetDouble, f.Pop(), true
		return true, nil
	case opcodes.ARETURN:
		f.RetKind, f.RetRef, f.Returned = frames.RetRef, f.PopRef(), true
		return true, nil
	case opcodes.RETURN:
		f.RetKind, f.Returned = frames.RetVoid, true
		return true, nil

	case opcodes.GETSTATIC, opcodes.PUTSTATIC, opcodes.GETFIELD, opcodes.PUTFIELD:
		return false, execFieldOp(f, op)

	case opcodes.NEW:
		return false, execNew(f)
	case opcodes.NEWARRAY:
		return false, execNewArray(f)
	case opcodes.ANEWARRAY:
		return false, execANewArray(f)
	case opcodes.ARRAYLENGTH:
		obj := f.PopRef()
		var o *object.Object
		if obj != nil {
			o = obj.(*object.Object)
		}
		n, err := ArrayLength(o)
		if err != nil {
			return false, err
		}
		f.Push(int64(n))
		return false, nil

	case opcodes.IALOAD, opcodes.LALOAD, opcodes.FALOAD, opcodes.DALOAD,
		opcodes.BALOAD, opcodes.CALOAD, opcodes.SALOAD:
		return false, execArrayLoad(f, op)
	case opcodes.AALOAD:
		return false, execArrayLoadRef(f)
	case opcodes.IASTORE, opcodes.LASTORE, opcodes.FASTORE, opcodes.DASTORE,
		opcodes.BASTORE, opcodes.CASTORE, opcodes.SASTORE:
		return false, execArrayStore(f, op)
	case opcodes.AASTORE:
		return false, execArrayStoreRef(f)

	case opcodes.ATHROW:
		v := f.PopRef()
		if v == nil {
			return false, excnames.NewVMError(excnames.NullPointerException, "")
		}
		return false, throwValue(v)

	case opcodes.CHECKCAST, opcodes.INSTANCEOF:
		return false, execCastCheck(f, op)

	case opcodes.MONITORENTER:
		obj := f.PopRef()
		return false, monitorEnter(th, obj)
	case opcodes.MONITOREXIT:
		obj := f.PopRef()
		return false, monitorExit(th, obj)

	case opcodes.INVOKEVIRTUAL, opcodes.INVOKESPECIAL, opcodes.INVOKESTATIC, opcodes.INVOKEINTERFACE:
		return false, execInvoke(th, fs, f, op)

	default:
		return false, excnames.NewVMError(excnames.InternalError, "unimplemented opcode")
	}
}

func pushConstant(f *frames.Frame, idx uint16) error {
	if f.Method == nil || f.Method.Owner == nil {
		return excnames.NewVMError(excnames.ClassFormatError, "ldc outside a linked method")
	}
	v, ok := f.Method.Owner.FetchCPEntry(idx)
	if !ok {
		return excnames.NewVMError(excnames.ClassFormatError, "bad constant pool index")
	}
	switch val := v.(type) {
	case int32:
		f.Push(int64(val))
	case int64:
		f.Push(val)
	case float32:
		f.Push(int64(math.Float32bits(val)))
	case float64:
		f.Push(int64(math.Float64bits(val)))
	case string:
		f.PushRef(val)
	default:
		f.PushRef(val)
	}
	return nil
}

func branch(f *frames.Frame) {
	off := int16(binary.BigEndian.Uint16(f.Meth[f.PC:]))
	f.PC = f.PC - 1 + int(off)
}

func execIf(f *frames.Frame, op opcodes.Opcode, v, _ int32) {
	var take bool
	switch op {
	case opcodes.IFEQ:
		take = v == 0
	case opcodes.IFNE:
		take = v != 0
	case opcodes.IFLT:
		take = v < 0
	case opcodes.IFGE:
		take = v >= 0
	case opcodes.IFGT:
		take = v > 0
	case opcodes.IFLE:
		take = v <= 0
	}
	if take {
		branch(f)
	} else {
		f.PC += 2
	}
}

func execIfICmp(f *frames.Frame, op opcodes.Opcode, a, b int32) {
	var take bool
	switch op {
	case opcodes.IF_ICMPEQ:
		take = a == b
	case opcodes.IF_ICMPNE:
		take = a != b
	case opcodes.IF_ICMPLT:
		take = a < b
	case opcodes.IF_ICMPGE:
		take = a >= b
	case opcodes.IF_ICMPGT:
		take = a > b
	case opcodes.IF_ICMPLE:
		take = a <= b
	}
	if take {
		branch(f)
	} else {
		f.PC += 2
	}
}

func monitorEnter(th *thread.ExecThread, v interface{}) error {
	if v == nil {
		return excnames.NewVMError(excnames.NullPointerException, "")
	}
	obj := v.(*object.Object)
	var tid uint32
	if th != nil {
		tid = th.ID
	}
	return synch.Monitors.Lock(context.Background(), obj, tid)
}

func monitorExit(th *thread.ExecThread, v interface{}) error {
	if v == nil {
		return excnames.NewVMError(excnames.NullPointerException, "")
	}
	obj := v.(*object.Object)
	var tid uint32
	if th != nil {
		tid = th.ID
	}
	return synch.Monitors.Unlock(obj, tid)
}

// throwValue turns an arbitrary reference popped by athrow into the
// error type the trap-table search and the trampoline understand.
func throwValue(v interface{}) error {
	if vmErr, ok := v.(*excnames.VMError); ok {
		return vmErr
	}
	if obj, ok := v.(*object.Object); ok && obj.Klass != nil {
		return excnames.NewVMError(*obj.Klass, obj.ToString())
	}
	return excnames.NewVMError(excnames.Throwable, "")
}
