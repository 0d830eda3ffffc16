package utils

import (
	"encoding/binary"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/pkg/errors"
)

// splTransferInstruction is the SPL token program transfer opcode.
const splTransferInstruction = 3

// associatedTokenCreateIdempotent is the associated token program opcode that
// creates an account unless it already exists.
const associatedTokenCreateIdempotent = 1

// GetAssociatedTokenAddress returns the token account address for a given token and owner.
// This is a deterministic address that follows Solana's Associated Token Account Program conventions.
func GetAssociatedTokenAddress(tokenMint, owner sol.PublicKey) (sol.PublicKey, error) {
	seeds := [][]byte{
		owner.Bytes(),
		sol.TokenProgramID.Bytes(),
		tokenMint.Bytes(),
	}

	addr, _, err := sol.FindProgramAddress(seeds, sol.SPLAssociatedTokenAccountProgramID)
	return addr, err
}

// CreateAssociatedTokenAccountInstruction creates the owner's token account for
// the mint, doing nothing if it exists.
func CreateAssociatedTokenAccountInstruction(payer, associatedToken, owner, mint sol.PublicKey) sol.Instruction {
	return sol.NewInstruction(
		sol.SPLAssociatedTokenAccountProgramID,
		sol.AccountMetaSlice{
			{PublicKey: payer, IsSigner: true, IsWritable: true},
			{PublicKey: associatedToken, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: false, IsWritable: false},
			{PublicKey: mint, IsSigner: false, IsWritable: false},
			{PublicKey: sol.SystemProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: sol.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		[]byte{associatedTokenCreateIdempotent},
	)
}

// CreateMemoInstruction creates a memo instruction with the given message
func CreateMemoInstruction(message string) sol.Instruction {
	return sol.NewInstruction(sol.MemoProgramID, sol.AccountMetaSlice{}, []byte(message))
}

// CreateTransferInstruction creates an SPL transfer between two token accounts.
func CreateTransferInstruction(source, destination, owner sol.PublicKey, amount uint64) sol.Instruction {
	data := make([]byte, 9)
	data[0] = splTransferInstruction
	binary.LittleEndian.PutUint64(data[1:], amount)

	return sol.NewInstruction(
		sol.TokenProgramID,
		sol.AccountMetaSlice{
			{PublicKey: source, IsSigner: false, IsWritable: true},
			{PublicKey: destination, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: true, IsWritable: false},
		},
		data,
	)
}

// TransferInstructions builds the instructions sending an amount of a mint, or
// of native SOL when mint is nil, from owner to recipient. The recipient's
// token account is created when missing.
//
// Parameters:
// - mint: the SPL mint, nil for native SOL.
// - owner: the sending wallet, also the fee payer.
// - recipient: the receiving wallet.
// - amount: the amount in base units.
//
// Returns:
// - []sol.Instruction: the instructions.
// - error: an error if an associated account cannot be derived.
func TransferInstructions(mint *sol.PublicKey, owner, recipient sol.PublicKey, amount uint64) ([]sol.Instruction, error) {
	if mint == nil {
		ix, err := system.NewTransferInstruction(amount, owner, recipient).ValidateAndBuild()
		if err != nil {
			return nil, errors.Wrap(err, "failed to build native transfer")
		}
		return []sol.Instruction{ix}, nil
	}

	sourceATA, err := GetAssociatedTokenAddress(*mint, owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get associated token address for owner")
	}
	destATA, err := GetAssociatedTokenAddress(*mint, recipient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get associated token address for recipient")
	}

	return []sol.Instruction{
		CreateAssociatedTokenAccountInstruction(owner, destATA, recipient, *mint),
		CreateTransferInstruction(sourceATA, destATA, owner, amount),
	}, nil
}
