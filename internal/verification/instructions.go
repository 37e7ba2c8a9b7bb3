package verification

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/CedrosPay/x402-facilitator/internal/accountcache"
	"github.com/CedrosPay/x402-facilitator/internal/x402types"
)

var computeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

const (
	computeUnitLimitDiscriminator byte = 2
	computeUnitPriceDiscriminator byte = 3
	transferCheckedDiscriminator byte = 12
	maxComputeUnitPriceMicroLamports uint64 = 5_000_000
)

// instructionCount validates the transaction carries exactly 3 or 4
// instructions and reports whether there are 4, in which case the third
// (index 2) is expected to be CreateATA; its content is checked later.
func instructionCount(tx *solana.Transaction) (hasCreateATA bool, err error) {
	count := len(tx.Message.Instructions)
	if count != 3 && count != 4 {
		return false, newError(CodeInstructionsLength, fmt.Sprintf("got %d instructions", count))
	}
	return count == 4, nil
}

func programIDOf(tx *solana.Transaction, inst solana.CompiledInstruction) (solana.PublicKey, error) {
	keys := tx.Message.AccountKeys
	idx := int(inst.ProgramIDIndex)
	if idx < 0 || idx >= len(keys) {
		return solana.PublicKey{}, fmt.Errorf("program id index %d out of range", idx)
	}
	return keys[idx], nil
}

func accountAt(tx *solana.Transaction, inst solana.CompiledInstruction, position int) (solana.PublicKey, error) {
	if position >= len(inst.Accounts) {
		return solana.PublicKey{}, fmt.Errorf("account position %d out of range", position)
	}
	idx := int(inst.Accounts[position])
	keys := tx.Message.AccountKeys
	if idx < 0 || idx >= len(keys) {
		return solana.PublicKey{}, fmt.Errorf("account index %d out of range", idx)
	}
	return keys[idx], nil
}

// verifyComputeLimitInstruction checks the SetComputeUnitLimit instruction.
func verifyComputeLimitInstruction(tx *solana.Transaction, inst solana.CompiledInstruction) error {
	programID, err := programIDOf(tx, inst)
	if err != nil || !programID.Equals(computeBudgetProgramID) {
		return newError(CodeComputeLimitInstr, "not a compute budget instruction")
	}
	if len(inst.Data) == 0 || inst.Data[0] != computeUnitLimitDiscriminator {
		return newError(CodeComputeLimitInstr, "wrong discriminator")
	}
	return nil
}

// verifyComputePriceInstruction checks SetComputeUnitPrice and its ceiling.
func verifyComputePriceInstruction(tx *solana.Transaction, inst solana.CompiledInstruction) error {
	programID, err := programIDOf(tx, inst)
	if err != nil || !programID.Equals(computeBudgetProgramID) {
		return newError(CodeComputePriceInstr, "not a compute budget instruction")
	}
	if len(inst.Data) == 0 || inst.Data[0] != computeUnitPriceDiscriminator {
		return newError(CodeComputePriceInstr, "wrong discriminator")
	}
	if len(inst.Data) < 9 {
		return newError(CodeComputePriceInstr, "missing price bytes")
	}
	microLamports := binary.LittleEndian.Uint64(inst.Data[1:9])
	if microLamports > maxComputeUnitPriceMicroLamports {
		return newError(CodeComputePriceTooHigh, fmt.Sprintf("%d micro-lamports", microLamports))
	}
	return nil
}

// verifyFeePayerSafety ensures feePayer never appears in any instruction's
// account list. This must run before any RPC I/O.
func verifyFeePayerSafety(tx *solana.Transaction, feePayer solana.PublicKey) error {
	for _, inst := range tx.Message.Instructions {
		for _, idx := range inst.Accounts {
			if int(idx) >= len(tx.Message.AccountKeys) {
				continue
			}
			if tx.Message.AccountKeys[idx].Equals(feePayer) {
				return newError(CodeFeePayerIncludedInAccounts, "")
			}
		}
	}
	return nil
}

// verifyCreateATAInstruction checks the optional CreateATA instruction.
func verifyCreateATAInstruction(tx *solana.Transaction, inst solana.CompiledInstruction, requirements x402types.PaymentRequirements) error {
	programID, err := programIDOf(tx, inst)
	if err != nil || !programID.Equals(solana.SPLAssociatedTokenAccountProgramID) {
		return newError(CodeCreateATAInstr, "not the associated token account program")
	}
	if len(inst.Accounts) < 6 {
		return newError(CodeCreateATAInstr, "too few accounts")
	}

	owner, err := accountAt(tx, inst, 2)
	if err != nil {
		return newError(CodeCreateATAInstr, "missing owner account")
	}
	mint, err := accountAt(tx, inst, 3)
	if err != nil {
		return newError(CodeCreateATAInstr, "missing mint account")
	}

	payTo, err := solana.PublicKeyFromBase58(requirements.PayTo)
	if err != nil {
		return newError(CodeCreateATAIncorrectPayee, "invalid pay_to")
	}
	if !owner.Equals(payTo) {
		return newError(CodeCreateATAIncorrectPayee, "")
	}

	asset, err := solana.PublicKeyFromBase58(requirements.Asset)
	if err != nil {
		return newError(CodeCreateATAIncorrectAsset, "invalid asset")
	}
	if !mint.Equals(asset) {
		return newError(CodeCreateATAIncorrectAsset, "")
	}

	return nil
}

// verifyTransferInstruction checks the TransferChecked instruction: token
// program identity, exact amount, authority isn't the fee payer, the
// destination is pay_to's ATA, and that the source (and, unless an ATA is
// being created, the destination) already exist on chain.
func verifyTransferInstruction(
	ctx context.Context,
	tx *solana.Transaction,
	inst solana.CompiledInstruction,
	requirements x402types.PaymentRequirements,
	feePayer solana.PublicKey,
	hasCreateATA bool,
	accounts *accountcache.Cache,
) error {
	programID, err := programIDOf(tx, inst)
	if err != nil || (!programID.Equals(solana.TokenProgramID) && !programID.Equals(solana.Token2022ProgramID)) {
		return newError(CodeNotATransferInstr, "not a token program")
	}

	if len(inst.Data) < 10 || inst.Data[0] != transferCheckedDiscriminator {
		return newError(CodeNotATransferInstr, "not a TransferChecked instruction")
	}

	amount := binary.LittleEndian.Uint64(inst.Data[1:9])

	requiredAmount, err := strconv.ParseUint(requirements.MaxAmountRequired, 10, 64)
	if err != nil {
		return newError(CodeAmountMismatch, "unparseable max_amount_required")
	}
	if amount != requiredAmount {
		return newError(CodeAmountMismatch, fmt.Sprintf("got %d want %d", amount, requiredAmount))
	}

	if len(inst.Accounts) < 4 {
		return newError(CodeNotATransferInstr, "too few accounts")
	}

	source, err := accountAt(tx, inst, 0)
	if err != nil {
		return newError(CodeNotATransferInstr, "missing source account")
	}
	destination, err := accountAt(tx, inst, 2)
	if err != nil {
		return newError(CodeNotATransferInstr, "missing destination account")
	}
	authority, err := accountAt(tx, inst, 3)
	if err != nil {
		return newError(CodeNotATransferInstr, "missing authority account")
	}

	if authority.Equals(feePayer) {
		return newError(CodeFeePayerTransferring, "")
	}

	payTo, err := solana.PublicKeyFromBase58(requirements.PayTo)
	if err != nil {
		return newError(CodeTransferToIncorrectATA, "invalid pay_to")
	}
	asset, err := solana.PublicKeyFromBase58(requirements.Asset)
	if err != nil {
		return newError(CodeTransferToIncorrectATA, "invalid asset")
	}

	expectedDestination, _, err := solana.FindAssociatedTokenAddress(payTo, asset)
	if err != nil {
		return newError(CodeTransferToIncorrectATA, "could not derive ata")
	}
	if !destination.Equals(expectedDestination) {
		return newError(CodeTransferToIncorrectATA, "")
	}

	if !accounts.Exists(ctx, source) {
		return newError(CodeSenderATANotFound, "")
	}
	if !hasCreateATA && !accounts.Exists(ctx, expectedDestination) {
		return newError(CodeReceiverATANotFound, "")
	}

	return nil
}
